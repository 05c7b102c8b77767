package example

import (
	"fmt"

	"github.com/rohmanhakim/aoc-fetch/internal/metadata"
	"github.com/rohmanhakim/aoc-fetch/pkg/failure"
)

type ParseErrorCause string

const (
	ErrCauseMalformedHTML ParseErrorCause = "malformed html"
	ErrCauseNoExample     ParseErrorCause = "no example found"
	ErrCauseNoAnswer      ParseErrorCause = "no example answer found"
)

type ParseError struct {
	Message   string
	Retryable bool
	Cause     ParseErrorCause
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("example parse error: %s: %s", e.Cause, e.Message)
}

func (e *ParseError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapParseErrorToMetadataCause is observational only.
func mapParseErrorToMetadataCause(err *ParseError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseMalformedHTML, ErrCauseNoExample, ErrCauseNoAnswer:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
