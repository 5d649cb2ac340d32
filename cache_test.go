package flagkit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryCacheGetMissReturnsFalseNotError(t *testing.T) {
	c := NewMemoryCache()
	payload, ok, err := c.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, payload)
}

func TestMemoryCacheSetThenGetRoundTrips(t *testing.T) {
	c := NewMemoryCache()
	body := []byte(`{"x":{"defaultValue":1}}`)
	require.NoError(t, c.Set(context.Background(), "key", body, time.Minute))

	got, ok, err := c.Get(context.Background(), "key")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, body, got)
}

func TestMemoryCacheOverwritesExistingKey(t *testing.T) {
	c := NewMemoryCache()
	require.NoError(t, c.Set(context.Background(), "key", []byte("a"), time.Minute))
	require.NoError(t, c.Set(context.Background(), "key", []byte("b"), time.Minute))

	got, ok, err := c.Get(context.Background(), "key")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("b"), got)
}
