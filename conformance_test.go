package flagkit

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flagkit/flagkit/internal/condition"
	"github.com/flagkit/flagkit/internal/value"
)

// conformanceCase replays one of the concrete scenarios from this
// SDK's evaluation semantics as a single (description, inputs,
// expected) tuple, the way the teacher's cases_test.go/features_test.go
// fixtures replay a JSON table of scenarios against a live evaluator.
type conformanceCase struct {
	description string
	run         func(t *testing.T)
}

func TestConformance(t *testing.T) {
	for _, c := range conformanceCases() {
		t.Run(c.description, c.run)
	}
}

func conformanceCases() []conformanceCase {
	return []conformanceCase{
		{
			"unknown feature resolves to null with unknownFeature source",
			func(t *testing.T) {
				ctx := NewContext().WithAttributes(Attributes{"id": value.Str("u1")})
				res := NewEngine(nil).EvalFeature(ctx, "x")
				require.Equal(t, UnknownFeatureSource, res.Source)
				require.Equal(t, value.Null(), res.Value)
				require.False(t, res.On)
				require.True(t, res.Off)
			},
		},
		{
			"default value only resolves to defaultValue source",
			func(t *testing.T) {
				ctx := NewContext().WithFeatures(FeatureMap{
					"x": {DefaultValue: value.Num(42)},
				}).WithAttributes(Attributes{"id": value.Str("u1")})
				res := NewEngine(nil).EvalFeature(ctx, "x")
				require.Equal(t, DefaultValueSource, res.Source)
				require.Equal(t, value.Num(42), res.Value)
				require.True(t, res.On)
			},
		},
		{
			"forced rule applies only when its condition matches",
			func(t *testing.T) {
				var cond condition.Base
				require.NoError(t, cond.UnmarshalJSON([]byte(`{"browser":"chrome"}`)))
				features := FeatureMap{
					"x": {
						DefaultValue: value.False(),
						Rules:        []FeatureRule{{Condition: cond, Force: value.True()}},
					},
				}

				chrome := NewContext().WithFeatures(features).
					WithAttributes(Attributes{"id": value.Str("u1"), "browser": value.Str("chrome")})
				res := NewEngine(nil).EvalFeature(chrome, "x")
				require.Equal(t, ForceSource, res.Source)
				require.Equal(t, value.True(), res.Value)

				safari := NewContext().WithFeatures(features).
					WithAttributes(Attributes{"id": value.Str("u1"), "browser": value.Str("safari")})
				res2 := NewEngine(nil).EvalFeature(safari, "x")
				require.Equal(t, DefaultValueSource, res2.Source)
				require.Equal(t, value.False(), res2.Value)
			},
		},
		{
			"experiment rule deterministically chooses a variation from the hash",
			func(t *testing.T) {
				features := FeatureMap{
					"x": {
						DefaultValue: value.Null(),
						Rules:        []FeatureRule{{Variations: []value.Value{value.Str("a"), value.Str("b")}}},
					},
				}
				ctx := NewContext().WithFeatures(features).WithAttributes(Attributes{"id": value.Str("u1")})

				n := computeHash("x", value.Str("u1"), 1)
				require.NotNil(t, n)
				want := chooseVariation(*n, bucketRanges(2, 1, nil))

				res := NewEngine(nil).EvalFeature(ctx, "x")
				require.Equal(t, ExperimentSource, res.Source)
				require.Equal(t, []value.Value{value.Str("a"), value.Str("b")}[want], res.Value)
			},
		},
		{
			"namespace exclusion keeps a user out of the experiment entirely",
			func(t *testing.T) {
				var excludedID string
				for i := 0; i < 1000; i++ {
					id := "user-" + string(rune('a'+i%26)) + string(rune('0'+i/26))
					if ns := (&Namespace{ID: "ns", Start: 0, End: 0.5}); !ns.inNamespace(id) {
						excludedID = id
						break
					}
				}
				require.NotEmpty(t, excludedID)

				exp := NewExperiment("my-test").
					WithVariations(value.Num(0), value.Num(1)).
					WithNamespace(&Namespace{ID: "ns", Start: 0, End: 0.5})

				ctx := NewContext().WithAttributes(Attributes{"id": value.Str(excludedID)})
				res := NewEngine(nil).RunExperiment(ctx, exp)
				require.False(t, res.InExperiment)
			},
		},
		{
			"mutually cyclic prerequisites resolve both features to cyclicPrerequisite",
			func(t *testing.T) {
				features := FeatureMap{
					"a": {
						DefaultValue: value.Num(1),
						Rules: []FeatureRule{
							{ParentConditions: []Prerequisite{{ID: "b", Condition: condition.Base{}}}, Force: value.Num(100)},
						},
					},
					"b": {
						DefaultValue: value.Num(2),
						Rules: []FeatureRule{
							{ParentConditions: []Prerequisite{{ID: "a", Condition: condition.Base{}}}, Force: value.Num(200)},
						},
					},
				}
				ctx := NewContext().WithFeatures(features).WithAttributes(Attributes{"id": value.Str("u1")})
				engine := NewEngine(nil)

				resA := engine.EvalFeature(ctx, "a")
				require.Equal(t, CyclicPrerequisiteSource, resA.Source)
				require.Equal(t, value.Null(), resA.Value)

				resB := engine.EvalFeature(ctx, "b")
				require.Equal(t, CyclicPrerequisiteSource, resB.Source)
				require.Equal(t, value.Null(), resB.Value)
			},
		},
		{
			"a stale-while-revalidate repository refreshes past its TTL and republishes",
			func(t *testing.T) {
				var served int32
				srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusOK)
					if atomic.AddInt32(&served, 1) == 1 {
						_, _ = w.Write([]byte(`{"status":200,"features":{"x":{"defaultValue":1}}}`))
						return
					}
					_, _ = w.Write([]byte(`{"status":200,"features":{"x":{"defaultValue":2}}}`))
				}))
				defer srv.Close()

				var refreshes int32
				repo, err := NewRepository(
					WithClientKey("key1"),
					WithAPIHost(srv.URL),
					WithSWRTTL(5*time.Millisecond),
					WithRefreshStrategy(RefreshPeriodic),
					WithOnRefresh(func(FeatureMap) { atomic.AddInt32(&refreshes, 1) }),
				)
				require.NoError(t, err)
				defer repo.Shutdown()

				require.NoError(t, repo.AwaitInitialization(2*time.Second))
				require.Equal(t, value.Num(1), repo.GetFeatures()["x"].DefaultValue)

				require.Eventually(t, func() bool {
					fm := repo.GetFeatures()
					f, ok := fm["x"]
					return ok && f.DefaultValue == value.Num(2)
				}, 2*time.Second, 5*time.Millisecond)
				require.GreaterOrEqual(t, atomic.LoadInt32(&refreshes), int32(1))

				ctx := NewContext().WithFeaturesProvider(repo).WithAttributes(Attributes{"id": value.Str("u1")})
				res := NewEngine(nil).EvalFeature(ctx, "x")
				require.Equal(t, value.Num(2), res.Value)
			},
		},
		{
			"encrypted features without a configured decryption key fails initialization and leaves the cache empty",
			func(t *testing.T) {
				srv := httptest.NewServer(featuresHandler(`{"status":200,"encryptedFeatures":"aXYuY2lwaGVydGV4dA=="}`))
				defer srv.Close()

				repo, err := NewRepository(
					WithClientKey("key1"),
					WithAPIHost(srv.URL),
					WithRefreshStrategy(RefreshManual),
					WithFetchRetries(0),
				)
				require.NoError(t, err)
				defer repo.Shutdown()

				require.Error(t, repo.AwaitInitialization(2*time.Second))
				state, reason := repo.State()
				require.Equal(t, "error", state)
				require.Contains(t, reason, "decryption key")
				require.Empty(t, repo.GetFeatures())
			},
		},
	}
}
