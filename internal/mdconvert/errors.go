package mdconvert

import (
	"fmt"

	"github.com/rohmanhakim/aoc-fetch/internal/metadata"
	"github.com/rohmanhakim/aoc-fetch/pkg/failure"
)

type ConversionErrorCause string

const (
	ErrCauseConversionFailure ConversionErrorCause = "conversion failed"
	ErrCauseNoDescription     ConversionErrorCause = "no puzzle description found"
)

type ConversionError struct {
	Message   string
	Retryable bool
	Cause     ConversionErrorCause
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion error: %s: %s", e.Cause, e.Message)
}

func (e *ConversionError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func mapConversionErrorToMetadataCause(err *ConversionError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseConversionFailure, ErrCauseNoDescription:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
