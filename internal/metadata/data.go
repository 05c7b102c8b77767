package metadata

import (
	"time"
)

type FetchEvent struct {
	key        string
	httpStatus int
	duration   time.Duration
	bodySize   int
}

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, metrics, reporting).

	Rules:
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause MUST NOT be used for retry or abort decisions.
	 - Packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

  - The failure does not map cleanly to any known category.

# CauseNetworkFailure

  - Transport failure or remote unavailability (timeouts, DNS, resets, 5xx).

# CausePolicyDisallow

  - The remote refused the request: rejected session (400/401/403) or
    server-side rate limiting (429).

# CauseContentInvalid

  - Content was fetched but could not be used (unreadable body, page
    without an example, missing description).

# CauseNotFound

  - The resource does not exist yet (404), typically a day not unlocked.

# CauseStorageFailure

  - Failure while persisting cache or throttle state.

# CauseInvariantViolation

  - A request that can never be valid, such as a malformed key.
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CausePolicyDisallow
	CauseContentInvalid
	CauseNotFound
	CauseStorageFailure
	CauseInvariantViolation
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CausePolicyDisallow:
		return "policy_disallow"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseNotFound:
		return "not_found"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseInvariantViolation:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

type ErrorRecord struct {
	packageName string
	action      string
	cause       ErrorCause
	errorString string
	observedAt  time.Time
	attrs       []Attribute
}

// ArtifactKind names what was persisted.
type ArtifactKind string

const (
	ArtifactCacheSnapshot     ArtifactKind = "cache_snapshot"
	ArtifactThrottleTimestamp ArtifactKind = "throttle_timestamp"
)

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrTime       AttributeKey = "time"
	AttrURL        AttributeKey = "url"
	AttrKey        AttributeKey = "key"
	AttrPath       AttributeKey = "path"
	AttrField      AttributeKey = "field"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrWritePath  AttributeKey = "write_path"
	AttrEntries    AttributeKey = "entries"
)
