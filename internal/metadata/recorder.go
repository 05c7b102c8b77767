package metadata

import (
	"context"
	"log/slog"
	"time"
)

/*
Metadata Collected
- Fetch timestamps, status codes and durations
- Cache hits and misses
- Throttle waits
- Persisted artifacts

Metadata is write-only.
No component may read metadata to influence fetch, cache or throttle decisions.
*/

/*
Recorder writes events as structured log records.
It must not:
- perform I/O decisions
- affect control flow
Events are logged synchronously in the order they are received.
*/
type Recorder struct {
	logger *slog.Logger
}

func NewRecorder(logger *slog.Logger) Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return Recorder{
		logger: logger,
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	record := ErrorRecord{
		packageName: packageName,
		action:      action,
		cause:       cause,
		errorString: errorString,
		observedAt:  observedAt,
		attrs:       attrs,
	}
	r.logger.LogAttrs(context.Background(), slog.LevelError, "operation failed", record.logAttrs()...)
}

func (r *Recorder) RecordFetch(
	key string,
	httpStatus int,
	duration time.Duration,
	bodySize int,
) {
	event := FetchEvent{
		key:        key,
		httpStatus: httpStatus,
		duration:   duration,
		bodySize:   bodySize,
	}
	r.logger.LogAttrs(context.Background(), slog.LevelInfo, "fetched",
		slog.String(string(AttrKey), event.key),
		slog.Int(string(AttrHTTPStatus), event.httpStatus),
		slog.Duration("duration", event.duration),
		slog.Int("bytes", event.bodySize),
	)
}

func (r *Recorder) RecordCacheLookup(key string, hit bool) {
	r.logger.LogAttrs(context.Background(), slog.LevelDebug, "cache lookup",
		slog.String(string(AttrKey), key),
		slog.Bool("hit", hit),
	)
}

func (r *Recorder) RecordThrottle(waited time.Duration) {
	level := slog.LevelDebug
	if waited > 0 {
		level = slog.LevelInfo
	}
	r.logger.LogAttrs(context.Background(), level, "throttle admitted request",
		slog.Duration("waited", waited),
	)
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	logAttrs := []slog.Attr{
		slog.String("kind", string(kind)),
		slog.String(string(AttrPath), path),
	}
	logAttrs = append(logAttrs, toSlog(attrs)...)
	r.logger.LogAttrs(context.Background(), slog.LevelDebug, "artifact persisted", logAttrs...)
}

func (e ErrorRecord) logAttrs() []slog.Attr {
	out := []slog.Attr{
		slog.String("package", e.packageName),
		slog.String("action", e.action),
		slog.String("cause", e.cause.String()),
		slog.String("error", e.errorString),
		slog.Time("observed_at", e.observedAt),
	}
	return append(out, toSlog(e.attrs)...)
}

func toSlog(attrs []Attribute) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, slog.String(string(a.Key), a.Value))
	}
	return out
}
