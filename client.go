package flagkit

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"
)

// ExperimentCallback is invoked whenever an experiment assigns a user
// to a variation — in_experiment=true — whether reached via
// Client.Run or as part of a feature's rule list (spec §9's
// "callback registration": the teacher's
// subscriptions map[subscriptionID]ExperimentCallback, generalized to
// a concurrent-safe registry). It does not ship the event anywhere;
// wiring it to an analytics backend is left to the host application.
type ExperimentCallback func(exp *Experiment, result *ExperimentResult)

// Client is the top-level entry point: a Repository keeping one
// client key's feature definitions warm, paired with the Engine that
// evaluates them. Most applications construct exactly one Client per
// process and derive a fresh Context per request from BuildContext.
type Client struct {
	repo   *Repository
	engine *Engine

	expSubsMu sync.Mutex
	expSubs   map[uuid.UUID]ExperimentCallback
}

// Init builds a Client: constructs its Repository (which starts
// fetching immediately in the background) and an Engine. Init returns
// as soon as the Repository is constructed; callers that need the
// first fetch to have landed before serving traffic should follow up
// with AwaitInitialization.
func Init(opts ...RepositoryOption) (*Client, error) {
	repo, err := NewRepository(opts...)
	if err != nil {
		return nil, err
	}
	return &Client{
		repo:    repo,
		engine:  NewEngine(repo.logger),
		expSubs: make(map[uuid.UUID]ExperimentCallback),
	}, nil
}

// BuildContext creates a Context wired to this Client's Repository, so
// feature lookups always see the latest refreshed definitions.
func (c *Client) BuildContext(attributes Attributes) *Context {
	return NewContext().WithAttributes(attributes).WithFeaturesProvider(c.repo)
}

// Feature evaluates a single feature by id (spec §4.5.1), notifying
// any experiment subscribers if the winning rule ran an experiment.
func (c *Client) Feature(ctx *Context, id string) *FeatureResult {
	res := c.engine.EvalFeature(ctx, id)
	if res.Experiment != nil && res.ExperimentResult != nil && res.ExperimentResult.InExperiment {
		c.notifyExperimentSubscribers(res.Experiment, res.ExperimentResult)
	}
	return res
}

// Run evaluates an experiment directly, outside any feature's rule
// list (spec §4.5.2), notifying any experiment subscribers on
// assignment.
func (c *Client) Run(ctx *Context, exp *Experiment) *ExperimentResult {
	res := c.engine.RunExperiment(ctx, exp)
	if res.InExperiment {
		c.notifyExperimentSubscribers(exp, res)
	}
	return res
}

// SubscribeExperiments registers a callback invoked on every
// experiment assignment, across every Context evaluated by this
// Client.
func (c *Client) SubscribeExperiments(fn ExperimentCallback) uuid.UUID {
	id := uuid.New()
	c.expSubsMu.Lock()
	c.expSubs[id] = fn
	c.expSubsMu.Unlock()
	return id
}

// UnsubscribeExperiments removes a previously registered experiment
// subscriber.
func (c *Client) UnsubscribeExperiments(id uuid.UUID) {
	c.expSubsMu.Lock()
	delete(c.expSubs, id)
	c.expSubsMu.Unlock()
}

func (c *Client) notifyExperimentSubscribers(exp *Experiment, res *ExperimentResult) {
	c.expSubsMu.Lock()
	fns := maps.Values(c.expSubs)
	c.expSubsMu.Unlock()

	for _, fn := range fns {
		c.invokeExperimentSubscriber(fn, exp, res)
	}
}

func (c *Client) invokeExperimentSubscriber(fn ExperimentCallback, exp *Experiment, res *ExperimentResult) {
	defer func() {
		if rec := recover(); rec != nil {
			c.repo.logger.Error("experiment subscriber panicked", "panic", rec)
		}
	}()
	fn(exp, res)
}

// AwaitInitialization blocks until the Repository's first fetch
// completes or timeout elapses (spec §5).
func (c *Client) AwaitInitialization(timeout time.Duration) error {
	return c.repo.AwaitInitialization(timeout)
}

// Refresh forces an immediate feature refresh.
func (c *Client) Refresh() { c.repo.Refresh() }

// GetFeatures returns the current feature map snapshot.
func (c *Client) GetFeatures() FeatureMap { return c.repo.GetFeatures() }

// Subscribe registers a callback invoked after every successful
// feature refresh.
func (c *Client) Subscribe(fn OnRefreshFunc) uuid.UUID { return c.repo.Subscribe(fn) }

// Unsubscribe removes a previously registered refresh subscriber.
func (c *Client) Unsubscribe(id uuid.UUID) { c.repo.Unsubscribe(id) }

// Shutdown stops the Repository's background refresh loop.
func (c *Client) Shutdown() { c.repo.Shutdown() }
