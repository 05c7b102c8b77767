package aoc

import (
	"errors"
	"fmt"

	"github.com/rohmanhakim/aoc-fetch/internal/example"
	"github.com/rohmanhakim/aoc-fetch/internal/fetcher"
	"github.com/rohmanhakim/aoc-fetch/internal/mdconvert"
	"github.com/rohmanhakim/aoc-fetch/pkg/failure"
)

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("aoc: client is closed")

// FetchError is the transport failure surfaced by Get. Inspect it with
// errors.As; Cause and StatusCode tell rejected sessions from missing days.
type FetchError = fetcher.FetchError

type FetchErrorCause = fetcher.FetchErrorCause

const (
	ErrCauseNetworkFailure   = fetcher.ErrCauseNetworkFailure
	ErrCauseUnauthorized     = fetcher.ErrCauseUnauthorized
	ErrCauseNotFound         = fetcher.ErrCauseNotFound
	ErrCauseRequestTooMany   = fetcher.ErrCauseRequestTooMany
	ErrCauseRequest5xx       = fetcher.ErrCauseRequest5xx
	ErrCauseUnexpectedStatus = fetcher.ErrCauseUnexpectedStatus
)

// ConfigError reports a configuration that cannot produce a working client.
// It is returned by New before any network activity.
type ConfigError struct {
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("aoc: invalid configuration: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("aoc: invalid configuration: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConfigError) Severity() failure.Severity {
	return failure.SeverityFatal
}

// ParseError is returned by Example when the page holds no usable example.
type ParseError = example.ParseError

// ConversionError is returned by Description when the page cannot be rendered.
type ConversionError = mdconvert.ConversionError
