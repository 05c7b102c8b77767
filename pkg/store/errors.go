package store

import (
	"fmt"

	"github.com/rohmanhakim/aoc-fetch/pkg/failure"
)

type StoreErrorCause string

const (
	ErrCauseDiskFull      StoreErrorCause = "disk is full"
	ErrCauseWriteFailure  StoreErrorCause = "write failed"
	ErrCausePathError     StoreErrorCause = "path error"
	ErrCauseEncodeFailure StoreErrorCause = "encode failed"
	ErrCauseHashFailure   StoreErrorCause = "hash computation failed"
	ErrCauseBackend       StoreErrorCause = "backend unavailable"
)

type StoreError struct {
	Message   string
	Retryable bool
	Cause     StoreErrorCause
	Path      string
}

func (e *StoreError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("store error: %s: %s (%s)", e.Cause, e.Message, e.Path)
	}
	return fmt.Sprintf("store error: %s: %s", e.Cause, e.Message)
}

func (e *StoreError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
