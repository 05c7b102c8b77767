package fetcher

import (
	"fmt"
	"runtime"
)

const (
	LibraryName = "aoc-fetch"
	ProjectURL  = "https://github.com/rohmanhakim/aoc-fetch"
)

// UserAgent identifies the library, its version and the operator contact.
// The site asks automated tools to say who runs them; a host without
// persistent caching is flagged so the operator can be told why it fetches
// more than once.
func UserAgent(version, contact string, persistent bool) string {
	ua := fmt.Sprintf("%s/%s (automated; +%s; +%s) net-http/%s",
		LibraryName, version, ProjectURL, contact, runtime.Version())
	if !persistent {
		ua += " (persistent cache disabled)"
	}
	return ua
}
