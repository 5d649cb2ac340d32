package flagkit

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flagkit/flagkit/internal/value"
)

func TestClientInitAndFeatureEndToEnd(t *testing.T) {
	srv := httptest.NewServer(featuresHandler(`{"status":200,"features":{
		"greeting": {"defaultValue": "hello"}
	}}`))
	defer srv.Close()

	client, err := Init(
		WithClientKey("key1"),
		WithAPIHost(srv.URL),
		WithRefreshStrategy(RefreshManual),
	)
	require.NoError(t, err)
	defer client.Shutdown()
	require.NoError(t, client.AwaitInitialization(2*time.Second))

	ctx := client.BuildContext(Attributes{"id": value.Str("u1")})
	res := client.Feature(ctx, "greeting")
	require.Equal(t, value.Str("hello"), res.Value)
	require.Equal(t, DefaultValueSource, res.Source)
}

func TestClientRunNotifiesExperimentSubscribers(t *testing.T) {
	srv := httptest.NewServer(featuresHandler(`{"status":200,"features":{}}`))
	defer srv.Close()

	client, err := Init(
		WithClientKey("key1"),
		WithAPIHost(srv.URL),
		WithRefreshStrategy(RefreshManual),
	)
	require.NoError(t, err)
	defer client.Shutdown()
	require.NoError(t, client.AwaitInitialization(2*time.Second))

	var mu sync.Mutex
	var seen *ExperimentResult
	client.SubscribeExperiments(func(exp *Experiment, result *ExperimentResult) {
		mu.Lock()
		seen = result
		mu.Unlock()
	})

	exp := NewExperiment("my-test").WithVariations(value.Num(0), value.Num(1))
	ctx := client.BuildContext(Attributes{"id": value.Str("u1")})
	res := client.Run(ctx, exp)
	require.True(t, res.InExperiment)

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, seen)
	require.Equal(t, res.VariationId, seen.VariationId)
}

func TestClientFeatureDoesNotNotifyWhenNoExperimentRuns(t *testing.T) {
	srv := httptest.NewServer(featuresHandler(`{"status":200,"features":{
		"x": {"defaultValue": 1}
	}}`))
	defer srv.Close()

	client, err := Init(
		WithClientKey("key1"),
		WithAPIHost(srv.URL),
		WithRefreshStrategy(RefreshManual),
	)
	require.NoError(t, err)
	defer client.Shutdown()
	require.NoError(t, client.AwaitInitialization(2*time.Second))

	called := false
	client.SubscribeExperiments(func(exp *Experiment, result *ExperimentResult) { called = true })

	ctx := client.BuildContext(Attributes{"id": value.Str("u1")})
	client.Feature(ctx, "x")
	require.False(t, called)
}

func TestClientUnsubscribeExperimentsStopsNotifications(t *testing.T) {
	srv := httptest.NewServer(featuresHandler(`{"status":200,"features":{}}`))
	defer srv.Close()

	client, err := Init(
		WithClientKey("key1"),
		WithAPIHost(srv.URL),
		WithRefreshStrategy(RefreshManual),
	)
	require.NoError(t, err)
	defer client.Shutdown()
	require.NoError(t, client.AwaitInitialization(2*time.Second))

	called := false
	id := client.SubscribeExperiments(func(exp *Experiment, result *ExperimentResult) { called = true })
	client.UnsubscribeExperiments(id)

	exp := NewExperiment("my-test").WithVariations(value.Num(0), value.Num(1))
	ctx := client.BuildContext(Attributes{"id": value.Str("u1")})
	client.Run(ctx, exp)
	require.False(t, called)
}
