package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rohmanhakim/aoc-fetch/pkg/hashutil"
)

const (
	EnvSession        = "AOC_SESSION"
	EnvCacheDirectory = "AOC_CACHE_DIRECTORY"

	BackendFile  = "file"
	BackendRedis = "redis"

	DefaultBaseURL = "https://adventofcode.com"
)

type Config struct {
	//===============
	// Identity
	//===============
	// Contact of the operator, appended to the user agent. Mandatory.
	contact string
	// Value of the site's session cookie. May be empty when the host
	// supplies a token source instead.
	sessionToken string

	//===============
	// Persistence
	//===============
	// Whether cache and throttle state survive the process
	persistentCache bool
	// Directory under which the file store creates its own subdirectory
	storeDir string
	// "file" or "redis"
	storeBackend string
	// Redis server address, used when storeBackend is "redis"
	redisAddr string
	// Key prefix for the redis store
	redisPrefix string
	// Checksum algorithm for file store entries
	hashAlgo hashutil.HashAlgo

	//===============
	// Fetch
	//===============
	// Site root that resource paths are resolved against
	baseURL string
	// Maximum time of a single request
	timeout time.Duration

	//===============
	// Logging
	//===============
	logLevel slog.Level
}

type configDTO struct {
	Contact         string        `json:"contact"`
	SessionToken    string        `json:"sessionToken,omitempty"`
	PersistentCache *bool         `json:"persistentCache,omitempty"`
	StoreDir        string        `json:"storeDir,omitempty"`
	StoreBackend    string        `json:"storeBackend,omitempty"`
	RedisAddr       string        `json:"redisAddr,omitempty"`
	RedisPrefix     string        `json:"redisPrefix,omitempty"`
	HashAlgo        string        `json:"hashAlgo,omitempty"`
	BaseURL         string        `json:"baseUrl,omitempty"`
	Timeout         time.Duration `json:"timeout,omitempty"`
	LogLevel        string        `json:"logLevel,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	cfg := WithDefault(dto.Contact)

	if dto.SessionToken != "" {
		cfg.sessionToken = dto.SessionToken
	}
	// persistentCache defaults to true, so only an explicit value overrides it
	if dto.PersistentCache != nil {
		cfg.persistentCache = *dto.PersistentCache
	}
	if dto.StoreDir != "" {
		cfg.storeDir = dto.StoreDir
	}
	if dto.StoreBackend != "" {
		cfg.storeBackend = dto.StoreBackend
	}
	if dto.RedisAddr != "" {
		cfg.redisAddr = dto.RedisAddr
	}
	if dto.RedisPrefix != "" {
		cfg.redisPrefix = dto.RedisPrefix
	}
	if dto.HashAlgo != "" {
		algo, err := hashutil.ParseHashAlgo(dto.HashAlgo)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
		}
		cfg.hashAlgo = algo
	}
	if dto.BaseURL != "" {
		cfg.baseURL = dto.BaseURL
	}
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	if dto.LogLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(dto.LogLevel)); err != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
		}
		cfg.logLevel = level
	}

	return cfg.Build()
}

func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	err = json.Unmarshal(configContent, &cfgDTO)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

// WithDefault creates a new Config with the provided contact and default values for all other fields.
// contact is mandatory; Build returns an error when it is empty.
func WithDefault(contact string) *Config {
	storeDir, err := os.UserCacheDir()
	if err != nil {
		storeDir = ""
	}
	defaultConfig := Config{
		contact:         contact,
		persistentCache: true,
		storeDir:        storeDir,
		storeBackend:    BackendFile,
		redisAddr:       "localhost:6379",
		redisPrefix:     "aoc-fetch",
		hashAlgo:        hashutil.HashAlgoBLAKE3,
		baseURL:         DefaultBaseURL,
		timeout:         30 * time.Second,
		logLevel:        slog.LevelInfo,
	}
	return &defaultConfig
}

// FromEnv is WithDefault plus the session token from AOC_SESSION and the
// store directory from AOC_CACHE_DIRECTORY, when set.
func FromEnv(contact string) *Config {
	cfg := WithDefault(contact)
	if session := os.Getenv(EnvSession); session != "" {
		cfg.sessionToken = strings.TrimSpace(session)
	}
	if dir := os.Getenv(EnvCacheDirectory); dir != "" {
		cfg.storeDir = dir
	}
	return cfg
}

func (c *Config) WithContact(contact string) *Config {
	c.contact = contact
	return c
}

func (c *Config) WithSessionToken(token string) *Config {
	c.sessionToken = token
	return c
}

func (c *Config) WithPersistentCache(enabled bool) *Config {
	c.persistentCache = enabled
	return c
}

func (c *Config) WithStoreDir(dir string) *Config {
	c.storeDir = dir
	return c
}

func (c *Config) WithStoreBackend(backend string) *Config {
	c.storeBackend = backend
	return c
}

func (c *Config) WithRedisAddr(addr string) *Config {
	c.redisAddr = addr
	return c
}

func (c *Config) WithRedisPrefix(prefix string) *Config {
	c.redisPrefix = prefix
	return c
}

func (c *Config) WithHashAlgo(algo hashutil.HashAlgo) *Config {
	c.hashAlgo = algo
	return c
}

func (c *Config) WithBaseURL(baseURL string) *Config {
	c.baseURL = baseURL
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithLogLevel(level slog.Level) *Config {
	c.logLevel = level
	return c
}

func (c *Config) Build() (Config, error) {
	if strings.TrimSpace(c.contact) == "" {
		return Config{}, fmt.Errorf("%w: contact cannot be empty", ErrInvalidConfig)
	}
	if c.persistentCache {
		switch c.storeBackend {
		case BackendFile:
			if c.storeDir == "" {
				return Config{}, fmt.Errorf("%w: store directory is required when persistent cache is enabled", ErrInvalidConfig)
			}
		case BackendRedis:
			if c.redisAddr == "" {
				return Config{}, fmt.Errorf("%w: redis address is required for the redis backend", ErrInvalidConfig)
			}
		default:
			return Config{}, fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.storeBackend)
		}
	}
	if _, err := hashutil.ParseHashAlgo(string(c.hashAlgo)); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}
	u, err := url.Parse(c.baseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return Config{}, fmt.Errorf("%w: base url must be absolute, got %q", ErrInvalidConfig, c.baseURL)
	}
	if c.timeout <= 0 {
		return Config{}, fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}

	return *c, nil
}

func (c Config) Contact() string {
	return c.contact
}

func (c Config) SessionToken() string {
	return c.sessionToken
}

func (c Config) PersistentCache() bool {
	return c.persistentCache
}

func (c Config) StoreDir() string {
	return c.storeDir
}

func (c Config) StoreBackend() string {
	return c.storeBackend
}

func (c Config) RedisAddr() string {
	return c.redisAddr
}

func (c Config) RedisPrefix() string {
	return c.redisPrefix
}

func (c Config) HashAlgo() hashutil.HashAlgo {
	return c.hashAlgo
}

func (c Config) BaseURL() string {
	return c.baseURL
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) LogLevel() slog.Level {
	return c.logLevel
}

// Validate reports whether c would pass Build. The zero Config is invalid.
func (c Config) Validate() error {
	_, err := c.Build()
	return err
}
