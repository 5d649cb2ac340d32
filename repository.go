package flagkit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	retry "github.com/avast/retry-go"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"golang.org/x/exp/maps"
)

// repoState is the Repository lifecycle (spec §4.6, §5): it starts
// pending, and moves to ready on the first successful fetch or error
// if every retry of the first fetch fails. Once ready, later fetch
// failures never move it back to error — the last good feature map
// stays live and the failure is only logged and counted.
type repoState int32

const (
	statePending repoState = iota
	stateReady
	stateError
)

// Repository fetches, caches and refreshes a client key's feature
// definitions over HTTP, exposing the result as an immutable FeatureMap
// snapshot safe to read from any number of goroutines (spec §4.6).
type Repository struct {
	cfg     *RepositoryConfig
	logger  Logger
	metrics *repositoryMetrics
	client  *fetchClient
	breaker *gobreaker.CircuitBreaker

	mu        sync.RWMutex
	features  FeatureMap
	state     repoState
	errReason string
	initErr   error
	etag      string
	fetchedAt time.Time

	readyOnce sync.Once
	readyCh   chan struct{}

	subsMu sync.Mutex
	subs   map[uuid.UUID]OnRefreshFunc

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewRepository builds and starts a Repository: it performs the first
// fetch synchronously from a background goroutine and returns
// immediately in the pending state. Callers that need the first fetch
// to have landed before proceeding should call AwaitInitialization.
func NewRepository(opts ...RepositoryOption) (*Repository, error) {
	cfg := newRepositoryConfig(opts...)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	if cfg.Cache == nil {
		cfg.Cache = NewMemoryCache()
	}

	r := &Repository{
		cfg:      cfg,
		logger:   logger,
		metrics:  newRepositoryMetrics(cfg.Registerer, cfg.ClientKey),
		client:   &fetchClient{httpClient: cfg.HTTPClient, apiHost: cfg.APIHost, clientKey: cfg.ClientKey},
		features: FeatureMap{},
		readyCh:  make(chan struct{}),
		subs:     make(map[uuid.UUID]OnRefreshFunc),
		stopCh:   make(chan struct{}),
	}
	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "flagkit-repository-" + cfg.ClientKey,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.CircuitBreakerThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	r.loadFromCache()

	r.wg.Add(1)
	go r.run()

	return r, nil
}

func (r *Repository) loadFromCache() {
	payload, ok, err := r.cfg.Cache.Get(context.Background(), r.cacheKey())
	if err != nil {
		r.logger.Warn("cache read failed", "error", err)
		return
	}
	if !ok {
		return
	}
	var fm FeatureMap
	if err := json.Unmarshal(payload, &fm); err != nil {
		r.logger.Warn("cached payload is not valid JSON, ignoring", "error", err)
		return
	}
	r.mu.Lock()
	r.features = fm
	r.mu.Unlock()
	r.logger.Debug("warm-started from cache", "features", len(fm))
}

func (r *Repository) cacheKey() string {
	return "flagkit:features:" + r.cfg.ClientKey
}

// run drives the refresh loop until Shutdown is called: an immediate
// first fetch, then either a periodic timer (RefreshPeriodic) or
// waiting for an explicit Refresh()/stale read.
func (r *Repository) run() {
	defer r.wg.Done()

	r.refresh(true)

	if r.cfg.RefreshStrategy != RefreshPeriodic {
		<-r.stopCh
		return
	}

	ticker := time.NewTicker(r.cfg.SWRTTL)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.refresh(false)
		}
	}
}

// refresh performs one fetch attempt (wrapped in retries and the
// circuit breaker) and applies its outcome to the state machine.
func (r *Repository) refresh(isFirst bool) {
	start := time.Now()
	etag := r.snapshotEtag()

	payload, err := r.fetchWithResilience(etag)
	r.metrics.fetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		r.metrics.fetchTotal.WithLabelValues("error").Inc()
		r.onFetchError(isFirst, err)
		return
	}
	if payload.Status == 304 {
		r.metrics.fetchTotal.WithLabelValues("not_modified").Inc()
		r.markReady()
		return
	}

	fm, raw, err := resolveFeatures(payload, r.cfg.DecryptionKey)
	if err != nil {
		r.metrics.fetchTotal.WithLabelValues("error").Inc()
		r.onFetchError(isFirst, err)
		return
	}

	r.metrics.fetchTotal.WithLabelValues("success").Inc()
	r.metrics.lastRefreshEpoch.SetToCurrentTime()
	r.publish(fm, payload.Etag)

	if err := r.cfg.Cache.Set(context.Background(), r.cacheKey(), raw, r.cfg.SWRTTL*10); err != nil {
		r.logger.Warn("cache write failed", "error", err)
	}
}

func (r *Repository) fetchWithResilience(etag string) (*featurePayload, error) {
	var payload *featurePayload
	breakerErr := retry.Do(
		func() error {
			res, err := r.breaker.Execute(func() (interface{}, error) {
				return r.client.fetch(context.Background(), etag)
			})
			if err != nil {
				return err
			}
			payload = res.(*featurePayload)
			return nil
		},
		retry.Attempts(r.cfg.FetchRetries+1),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var fe *FetchError
			if asFetchError(err, &fe) && fe.StatusCode >= 400 && fe.StatusCode < 500 {
				return false
			}
			return true
		}),
	)
	return payload, breakerErr
}

func asFetchError(err error, target **FetchError) bool {
	fe, ok := err.(*FetchError)
	if ok {
		*target = fe
	}
	return ok
}

func (r *Repository) onFetchError(isFirst bool, err error) {
	r.logger.Error("feature fetch failed", "error", err)
	if isFirst {
		r.mu.Lock()
		r.state = stateError
		r.errReason = err.Error()
		r.initErr = err
		r.mu.Unlock()
		r.readyOnce.Do(func() { close(r.readyCh) })
	} else {
		r.metrics.staleReads.Inc()
	}
}

func (r *Repository) markReady() {
	r.mu.Lock()
	wasPending := r.state == statePending
	r.state = stateReady
	r.fetchedAt = time.Now()
	r.mu.Unlock()
	if wasPending {
		r.readyOnce.Do(func() { close(r.readyCh) })
	}
}

// publish atomically swaps in the new feature map and notifies
// subscribers. The map itself is never mutated after this point, so
// concurrent readers never need to hold the lock longer than the
// pointer copy.
func (r *Repository) publish(fm FeatureMap, etag string) {
	r.mu.Lock()
	wasPending := r.state == statePending
	r.state = stateReady
	r.features = fm
	r.etag = etag
	r.fetchedAt = time.Now()
	r.mu.Unlock()

	if wasPending {
		r.readyOnce.Do(func() { close(r.readyCh) })
	}
	r.notifySubscribers(fm)
}

func (r *Repository) snapshotEtag() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.etag
}

// GetFeatures returns the current feature map snapshot, triggering a
// background revalidation if it's older than SWRTTL and the refresh
// strategy is RefreshPeriodic (stale-while-revalidate). Implements
// FeaturesProvider.
func (r *Repository) GetFeatures() FeatureMap {
	r.mu.RLock()
	fm := r.features
	stale := time.Since(r.fetchedAt) > r.cfg.SWRTTL
	r.mu.RUnlock()

	if stale && r.cfg.RefreshStrategy == RefreshPeriodic {
		go r.refresh(false)
	}
	return fm
}

// Refresh triggers an immediate synchronous fetch, regardless of
// refresh strategy or staleness.
func (r *Repository) Refresh() {
	r.refresh(false)
}

// State reports the repository's current lifecycle state and, if in
// the error state, the reason the first fetch failed.
func (r *Repository) State() (string, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch r.state {
	case statePending:
		return "pending", ""
	case stateReady:
		return "ready", ""
	default:
		return "error", r.errReason
	}
}

// AwaitInitialization blocks until the repository leaves the pending
// state or timeout elapses, whichever comes first (spec §5). It returns
// a TimeoutError when the deadline passes first, and the first fetch's
// error while the repository is in the error state. A non-positive
// timeout falls back to the configured
// RepositoryConfig.InitializationTimeout; if that is also non-positive,
// it waits forever.
func (r *Repository) AwaitInitialization(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = r.cfg.InitializationTimeout
	}
	if timeout <= 0 {
		<-r.readyCh
		return r.initError()
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-r.readyCh:
		return r.initError()
	case <-timer.C:
		return &TimeoutError{}
	}
}

// initError returns the first fetch's error while the repository is in
// the error state, and nil once a fetch has succeeded.
func (r *Repository) initError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state == stateError {
		return r.initErr
	}
	return nil
}

// Subscribe registers a callback invoked after every successful
// refresh, after the WithOnRefresh callback if one is configured. The
// order among subscribers is not defined. Subscribers run sequentially
// on the refreshing goroutine, each recovered independently: a
// panicking subscriber never crashes its peers or the refresh loop,
// but a slow one delays them.
func (r *Repository) Subscribe(fn OnRefreshFunc) uuid.UUID {
	id := uuid.New()
	r.subsMu.Lock()
	r.subs[id] = fn
	r.subsMu.Unlock()
	return id
}

// Unsubscribe removes a previously registered subscriber.
func (r *Repository) Unsubscribe(id uuid.UUID) {
	r.subsMu.Lock()
	delete(r.subs, id)
	r.subsMu.Unlock()
}

func (r *Repository) notifySubscribers(fm FeatureMap) {
	if r.cfg.OnRefresh != nil {
		r.invokeSubscriber(r.cfg.OnRefresh, fm)
	}

	r.subsMu.Lock()
	fns := maps.Values(r.subs)
	r.subsMu.Unlock()

	for _, fn := range fns {
		r.invokeSubscriber(fn, fm)
	}
}

func (r *Repository) invokeSubscriber(fn OnRefreshFunc, fm FeatureMap) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("subscriber panicked", "panic", rec)
		}
	}()
	fn(fm)
}

// Shutdown stops the background refresh loop. It does not unregister
// subscribers or clear the cached feature map; GetFeatures keeps
// returning the last snapshot.
func (r *Repository) Shutdown() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}
