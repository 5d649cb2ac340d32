package flagkit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNamespaceFullRangeIncludesEveryone(t *testing.T) {
	full := Namespace{ID: "ns", Start: 0, End: 1}
	require.True(t, full.inNamespace("any-user"))
}

func TestNamespaceEmptyRangeExcludesEveryone(t *testing.T) {
	empty := Namespace{ID: "ns", Start: 0, End: 0}
	require.False(t, empty.inNamespace("any-user"))
}

func TestNamespaceJSONUnmarshalsTriple(t *testing.T) {
	var n Namespace
	require.NoError(t, json.Unmarshal([]byte(`["checkout", 0.2, 0.4]`), &n))
	require.Equal(t, Namespace{ID: "checkout", Start: 0.2, End: 0.4}, n)
}

func TestNamespaceJSONMarshalRoundTrips(t *testing.T) {
	n := Namespace{ID: "checkout", Start: 0.2, End: 0.4}
	data, err := json.Marshal(n)
	require.NoError(t, err)

	var out Namespace
	require.NoError(t, json.Unmarshal(data, &out))
	require.Equal(t, n, out)
}

func TestNamespaceSameUserConsistentAcrossNamespaceID(t *testing.T) {
	a := Namespace{ID: "ns1", Start: 0, End: 1}
	b := Namespace{ID: "ns1", Start: 0, End: 1}
	require.Equal(t, a.inNamespace("user-42"), b.inNamespace("user-42"))
}
