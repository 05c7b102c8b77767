package aoc

import (
	"log/slog"
	"net/http"

	"github.com/rohmanhakim/aoc-fetch/pkg/store"
	"github.com/rohmanhakim/aoc-fetch/pkg/timeutil"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/oauth2"
)

type options struct {
	fetcher       Fetcher
	store         store.Store
	clock         timeutil.Clock
	sleeper       timeutil.Sleeper
	logger        *slog.Logger
	meterProvider metric.MeterProvider
	httpClient    *http.Client
	tokenSource   oauth2.TokenSource
}

type Option func(*options)

// WithFetcher replaces the HTTP fetcher.
func WithFetcher(f Fetcher) Option {
	return func(o *options) {
		o.fetcher = f
	}
}

// WithStore replaces the store selected by the configuration. It is ignored
// when persistent caching is disabled.
func WithStore(s store.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

func WithClock(c timeutil.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

func WithSleeper(s timeutil.Sleeper) Option {
	return func(o *options) {
		o.sleeper = s
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithHTTPClient sets the client used by the default fetcher.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithTokenSource supplies the session token on each fetch instead of the
// static token from the configuration.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(o *options) {
		o.tokenSource = ts
	}
}
