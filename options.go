package flagkit

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultAPIHost = "https://cdn.growthbook.io"

// RefreshStrategy selects how a Repository keeps its feature cache
// current (spec §4.6).
type RefreshStrategy string

const (
	// RefreshPeriodic schedules a background timer every SWRTTL and
	// also refreshes lazily on a stale read.
	RefreshPeriodic RefreshStrategy = "periodic"
	// RefreshManual never refreshes on its own; after the initial
	// fetch, only an explicit Refresh() call triggers a fetch. Stale
	// reads do not.
	RefreshManual RefreshStrategy = "manual"
)

// OnRefreshFunc is invoked once per successful refresh, after the new
// feature map has been published (spec §4.6, §5). Every call is
// wrapped so that a panicking subscriber is recovered and logged
// without affecting other subscribers or the Repository. Calls run
// sequentially on the refreshing goroutine, so a slow subscriber
// delays the ones after it and the completion of that refresh.
type OnRefreshFunc func(features FeatureMap)

// RepositoryConfig configures a Repository (spec §4.6).
type RepositoryConfig struct {
	ClientKey               string
	APIHost                 string
	DecryptionKey           string
	SWRTTL                  time.Duration
	RefreshStrategy         RefreshStrategy
	OnRefresh               OnRefreshFunc
	InitializationTimeout   time.Duration
	HTTPClient              *http.Client
	Cache                   Cache
	CircuitBreakerThreshold uint32
	FetchRetries            uint
	Logger                  Logger
	Registerer              prometheus.Registerer
}

// RepositoryOption configures a RepositoryConfig via the functional
// options pattern (spec: grounded in the teacher's client_option.go
// ClientOption pattern).
type RepositoryOption func(*RepositoryConfig)

// WithClientKey sets the required GrowthBook client key.
func WithClientKey(key string) RepositoryOption {
	return func(c *RepositoryConfig) { c.ClientKey = key }
}

// WithAPIHost overrides the default CDN host.
func WithAPIHost(host string) RepositoryOption {
	return func(c *RepositoryConfig) { c.APIHost = host }
}

// WithDecryptionKey configures the base64 AES key used to decrypt an
// encryptedFeatures payload.
func WithDecryptionKey(key string) RepositoryOption {
	return func(c *RepositoryConfig) { c.DecryptionKey = key }
}

// WithSWRTTL sets the stale-while-revalidate TTL.
func WithSWRTTL(ttl time.Duration) RepositoryOption {
	return func(c *RepositoryConfig) { c.SWRTTL = ttl }
}

// WithRefreshStrategy overrides the default periodic refresh.
func WithRefreshStrategy(strategy RefreshStrategy) RepositoryOption {
	return func(c *RepositoryConfig) { c.RefreshStrategy = strategy }
}

// WithOnRefresh registers the single convenience refresh callback. For
// multiple independent subscribers use Repository.Subscribe instead.
func WithOnRefresh(fn OnRefreshFunc) RepositoryOption {
	return func(c *RepositoryConfig) { c.OnRefresh = fn }
}

// WithInitializationTimeout bounds how long AwaitInitialization waits.
func WithInitializationTimeout(d time.Duration) RepositoryOption {
	return func(c *RepositoryConfig) { c.InitializationTimeout = d }
}

// WithHTTPClient overrides the HTTP client used for feature fetches.
func WithHTTPClient(client *http.Client) RepositoryOption {
	return func(c *RepositoryConfig) { c.HTTPClient = client }
}

// WithCache plugs in a shared Cache backend (e.g. RedisCache) instead
// of the in-memory default.
func WithCache(cache Cache) RepositoryOption {
	return func(c *RepositoryConfig) { c.Cache = cache }
}

// WithCircuitBreakerThreshold sets how many consecutive fetch
// failures open the breaker before further fetches short-circuit.
func WithCircuitBreakerThreshold(n uint32) RepositoryOption {
	return func(c *RepositoryConfig) { c.CircuitBreakerThreshold = n }
}

// WithFetchRetries sets how many bounded retries a single fetch
// attempt gets before the circuit breaker/SWR logic takes over.
func WithFetchRetries(n uint) RepositoryOption {
	return func(c *RepositoryConfig) { c.FetchRetries = n }
}

// WithLogger overrides the default zerolog-backed logger.
func WithLogger(logger Logger) RepositoryOption {
	return func(c *RepositoryConfig) { c.Logger = logger }
}

// WithRegisterer supplies the prometheus registry the repository
// registers its collectors on. A nil registerer (the default) skips
// registration entirely, which keeps unit tests from colliding on the
// default global registry when constructing many repositories.
func WithRegisterer(registerer prometheus.Registerer) RepositoryOption {
	return func(c *RepositoryConfig) { c.Registerer = registerer }
}

func newRepositoryConfig(opts ...RepositoryOption) *RepositoryConfig {
	cfg := &RepositoryConfig{
		APIHost:                 defaultAPIHost,
		SWRTTL:                  60 * time.Second,
		RefreshStrategy:         RefreshPeriodic,
		InitializationTimeout:   5 * time.Second,
		HTTPClient:              http.DefaultClient,
		CircuitBreakerThreshold: 5,
		FetchRetries:            2,
		Logger:                  NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.APIHost = strings.TrimSuffix(cfg.APIHost, "/")
	return cfg
}

// validate enforces the ConfigError boundary (spec §7): client key and
// API host are mandatory.
func (c *RepositoryConfig) validate() error {
	if c.ClientKey == "" {
		return &ConfigError{Reason: "client key is required"}
	}
	if c.APIHost == "" {
		return &ConfigError{Reason: "api host is required"}
	}
	return nil
}
