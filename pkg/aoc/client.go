package aoc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rohmanhakim/aoc-fetch/internal/build"
	"github.com/rohmanhakim/aoc-fetch/internal/cache"
	"github.com/rohmanhakim/aoc-fetch/internal/fetcher"
	"github.com/rohmanhakim/aoc-fetch/internal/metadata"
	"github.com/rohmanhakim/aoc-fetch/internal/throttle"
	"github.com/rohmanhakim/aoc-fetch/pkg/config"
	"github.com/rohmanhakim/aoc-fetch/pkg/puzzle"
	"github.com/rohmanhakim/aoc-fetch/pkg/store"
	"github.com/rohmanhakim/aoc-fetch/pkg/timeutil"
	"go.opentelemetry.io/otel"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// Fetcher performs exactly one GET for key. credential is the session token
// and identity the User-Agent value. Implementations must not retry.
type Fetcher interface {
	Fetch(ctx context.Context, key puzzle.Key, credential, identity string) (string, error)
}

// Cooldown is the minimum spacing between two outbound requests.
const Cooldown = throttle.DefaultCooldown

/*
Client serves puzzle resources from its cache and fetches misses over the
network, at most one request per Cooldown.

Lifecycle: New loads persisted state, Get and GetWithoutCache may be called
concurrently, and Close flushes the state back exactly once. Calls after
Close fail with ErrClosed.
*/
type Client struct {
	cfg      config.Config
	fetcher  Fetcher
	tokens   oauth2.TokenSource
	identity string
	logger   *slog.Logger
	sink     metadata.MetadataSink

	store         store.Store
	storeLocation string
	closers       []func() error

	cache    cache.Cache
	throttle *throttle.Throttle
	group    singleflight.Group

	// ctx is cancelled by Close to abort pending throttle waits.
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	closed    bool
	inflight  sync.WaitGroup
	closeOnce sync.Once
	closeErr  error

	fetching atomic.Int32
	used     atomic.Bool
	flushed  atomic.Bool
}

// New builds a client from cfg. Configuration problems, including an
// unusable store directory, are reported as *ConfigError before any network
// activity. With persistence enabled the cache and throttle are loaded from
// the store; unreadable state is treated as empty.
func New(cfg config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Message: "configuration rejected", Err: err}
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	tokens := o.tokenSource
	if tokens == nil {
		if cfg.SessionToken() == "" {
			return nil, &ConfigError{Message: fmt.Sprintf("no session token; set %s or supply a token source", config.EnvSession)}
		}
		tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.SessionToken()})
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	}

	recorder := metadata.NewRecorder(logger)
	sink := metadata.MultiSink{&recorder}
	meterProvider := o.meterProvider
	if meterProvider == nil {
		meterProvider = otel.GetMeterProvider()
	}
	if meterSink, err := metadata.NewMeterSink(meterProvider); err != nil {
		logger.Warn("metrics disabled", slog.String("error", err.Error()))
	} else {
		sink = append(sink, meterSink)
	}

	f := o.fetcher
	if f == nil {
		httpClient := o.httpClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: cfg.Timeout()}
		}
		hf, err := fetcher.NewHTTPFetcher(sink, httpClient, cfg.BaseURL())
		if err != nil {
			return nil, &ConfigError{Message: "base url", Err: err}
		}
		f = hf
	}

	clock := o.clock
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	sleeper := o.sleeper
	if sleeper == nil {
		sleeper = timeutil.TimerSleep{}
	}

	c := &Client{
		cfg:      cfg,
		fetcher:  f,
		tokens:   oauth2.ReuseTokenSource(nil, tokens),
		identity: fetcher.UserAgent(build.UserAgentVersion(), cfg.Contact(), cfg.PersistentCache()),
		logger:   logger,
		sink:     sink,
		cache:    cache.NewMemoryCache(),
		throttle: throttle.New(
			throttle.WithClock(clock),
			throttle.WithSleeper(sleeper),
			throttle.WithMetadataSink(sink),
		),
	}

	if cfg.PersistentCache() {
		if err := c.openStore(o.store); err != nil {
			return nil, err
		}
		c.cache.LoadFrom(c.store)
		c.throttle.LoadFrom(c.store)
		logger.Debug("state loaded",
			slog.String("store", c.storeLocation),
			slog.Int("entries", c.cache.Size()),
			slog.Time("last_request", c.throttle.LastRequestAt()),
		)
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c, nil
}

func (c *Client) openStore(override store.Store) error {
	if override != nil {
		c.store = override
		c.storeLocation = fmt.Sprintf("%T", override)
		return nil
	}

	switch c.cfg.StoreBackend() {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: c.cfg.RedisAddr()})
		rs, err := store.NewRedisStore(rdb, c.cfg.RedisPrefix())
		if err != nil {
			rdb.Close()
			return &ConfigError{Message: "redis store unavailable", Err: err}
		}
		c.store = rs
		c.storeLocation = "redis://" + c.cfg.RedisAddr() + "/" + c.cfg.RedisPrefix()
		c.closers = append(c.closers, rdb.Close)
	default:
		fs, err := store.NewFileStore(c.cfg.StoreDir(), store.WithChecksumAlgo(c.cfg.HashAlgo()))
		if err != nil {
			return &ConfigError{Message: "store directory unusable", Err: err}
		}
		c.store = fs
		c.storeLocation = fs.Root()
	}
	return nil
}

// Identity returns the User-Agent sent with every request.
func (c *Client) Identity() string {
	return c.identity
}

// Get returns the body for key, from the cache when present. A miss waits
// for the throttle, fetches once and caches the result. Failed fetches are
// not cached and not retried. Concurrent misses for the same key share one
// fetch; a caller waiting on a shared fetch still returns as soon as its own
// ctx ends.
func (c *Client) Get(ctx context.Context, key puzzle.Key) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}
	if err := c.begin(); err != nil {
		return "", err
	}
	defer c.end()

	if body, ok := c.cache.Get(key); ok {
		c.sink.RecordCacheLookup(key.String(), true)
		return body, nil
	}
	c.sink.RecordCacheLookup(key.String(), false)

	for {
		ch := c.group.DoChan(key.String(), func() (any, error) {
			if err := c.begin(); err != nil {
				return nil, err
			}
			defer c.end()

			// another caller may have filled the entry while this one queued
			if body, ok := c.cache.Get(key); ok {
				return body, nil
			}
			body, err := c.fetchAndStore(ctx, key)
			if err != nil && ctx.Err() != nil {
				return nil, &abandonedFetch{err: err}
			}
			return body, err
		})

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res := <-ch:
			var abandoned *abandonedFetch
			if errors.As(res.Err, &abandoned) {
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				// the caller that started the shared fetch went away; start another
				continue
			}
			if res.Err != nil {
				return "", res.Err
			}
			return res.Val.(string), nil
		}
	}
}

// abandonedFetch is a shared fetch that failed because the context of the
// caller that started it ended. Callers still waiting on it fetch again.
type abandonedFetch struct {
	err error
}

func (e *abandonedFetch) Error() string {
	return e.err.Error()
}

func (e *abandonedFetch) Unwrap() error {
	return e.err
}

// Invalidate drops the in-memory entry for key so the next Get fetches it
// again. The persisted copy is replaced only once that fetch succeeds and the
// client is closed; stores merge on save and never delete entries.
func (c *Client) Invalidate(key puzzle.Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	c.cache.Invalidate(key)
	return nil
}

// GetWithoutCache always fetches, subject to the throttle, and on success
// overwrites the cached entry for key.
func (c *Client) GetWithoutCache(ctx context.Context, key puzzle.Key) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}
	if err := c.begin(); err != nil {
		return "", err
	}
	defer c.end()

	return c.fetchAndStore(ctx, key)
}

func (c *Client) fetchAndStore(ctx context.Context, key puzzle.Key) (string, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("aoc: session token: %w", err)
	}

	c.fetching.Add(1)
	defer c.fetching.Add(-1)

	if err := c.admit(ctx); err != nil {
		return "", err
	}

	body, err := c.fetcher.Fetch(ctx, key, token.AccessToken, c.identity)
	if err != nil {
		return "", err
	}
	c.cache.Put(key, body)
	return body, nil
}

// admit waits for the throttle. The wait ends early when ctx is done or the
// client is closed; the fetch itself is never interrupted by Close.
func (c *Client) admit(ctx context.Context) error {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	_, err := c.throttle.Admit(waitCtx)
	if err != nil && c.ctx.Err() != nil && ctx.Err() == nil {
		return ErrClosed
	}
	return err
}

func (c *Client) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	c.inflight.Add(1)
	return nil
}

func (c *Client) end() {
	c.used.Store(true)
	c.inflight.Done()
}

// Close aborts pending throttle waits, waits for in-flight calls and then
// flushes the cache and the throttle timestamp to the store, once each.
// Both flushes run even if one fails; their errors are joined. Later calls
// return the result of the first.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		c.cancel()
		c.inflight.Wait()

		c.closeErr = c.flush()
		c.flushed.Store(true)
	})
	return c.closeErr
}

func (c *Client) flush() error {
	if c.store == nil {
		return nil
	}

	var errs []error
	if err := c.cache.FlushTo(c.store); err != nil {
		c.recordFlushError("Cache.FlushTo", err)
		errs = append(errs, fmt.Errorf("flush cache: %w", err))
	} else {
		c.sink.RecordArtifact(metadata.ArtifactCacheSnapshot, c.storeLocation, []metadata.Attribute{
			metadata.NewAttr(metadata.AttrEntries, fmt.Sprint(c.cache.Size())),
		})
	}

	if err := c.throttle.FlushTo(c.store); err != nil {
		c.recordFlushError("Throttle.FlushTo", err)
		errs = append(errs, fmt.Errorf("flush throttle: %w", err))
	} else if last := c.throttle.LastRequestAt(); !last.IsZero() {
		c.sink.RecordArtifact(metadata.ArtifactThrottleTimestamp, c.storeLocation, []metadata.Attribute{
			metadata.NewAttr(metadata.AttrTime, last.Format(time.RFC3339Nano)),
		})
	}

	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (c *Client) recordFlushError(action string, err error) {
	c.sink.RecordError(
		time.Now(),
		"aoc",
		action,
		metadata.CauseStorageFailure,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, c.storeLocation),
		},
	)
}
