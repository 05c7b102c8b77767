package metadata

import "time"

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		key string,
		httpStatus int,
		duration time.Duration,
		bodySize int,
	)
	RecordCacheLookup(key string, hit bool)
	RecordThrottle(waited time.Duration)
	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
}

type NoopSink struct{}

func (NoopSink) RecordError(time.Time, string, string, ErrorCause, string, []Attribute) {}
func (NoopSink) RecordFetch(string, int, time.Duration, int) {}
func (NoopSink) RecordCacheLookup(string, bool) {}
func (NoopSink) RecordThrottle(time.Duration) {}
func (NoopSink) RecordArtifact(ArtifactKind, string, []Attribute) {}

// MultiSink fans every event out to each sink in order.
type MultiSink []MetadataSink

func (m MultiSink) RecordError(observedAt time.Time, packageName, action string, cause ErrorCause, details string, attrs []Attribute) {
	for _, s := range m {
		s.RecordError(observedAt, packageName, action, cause, details, attrs)
	}
}

func (m MultiSink) RecordFetch(key string, httpStatus int, duration time.Duration, bodySize int) {
	for _, s := range m {
		s.RecordFetch(key, httpStatus, duration, bodySize)
	}
}

func (m MultiSink) RecordCacheLookup(key string, hit bool) {
	for _, s := range m {
		s.RecordCacheLookup(key, hit)
	}
}

func (m MultiSink) RecordThrottle(waited time.Duration) {
	for _, s := range m {
		s.RecordThrottle(waited)
	}
}

func (m MultiSink) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	for _, s := range m {
		s.RecordArtifact(kind, path, attrs)
	}
}
