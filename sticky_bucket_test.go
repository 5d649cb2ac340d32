package flagkit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flagkit/flagkit/internal/value"
)

func TestStickyBucketSaveThenGetReturnsSameVariation(t *testing.T) {
	svc := NewInMemoryStickyBucketService()
	meta := []VariationMeta{{Key: "0"}, {Key: "1"}}

	err := SaveStickyBucketAssignment("my-test", 0, "1", svc, "id", "user-1", nil)
	require.NoError(t, err)

	attrs := Attributes{"id": value.Str("user-1")}
	res, err := GetStickyBucketVariation("my-test", 0, 0, meta, svc, "id", "", attrs, nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.Variation)
	require.False(t, res.VersionIsBlocked)
}

func TestStickyBucketUnknownUserReturnsNoAssignment(t *testing.T) {
	svc := NewInMemoryStickyBucketService()
	meta := []VariationMeta{{Key: "0"}, {Key: "1"}}

	attrs := Attributes{"id": value.Str("stranger")}
	res, err := GetStickyBucketVariation("my-test", 0, 0, meta, svc, "id", "", attrs, nil)
	require.NoError(t, err)
	require.Equal(t, -1, res.Variation)
}

func TestStickyBucketMinVersionBlocksEarlierAssignment(t *testing.T) {
	svc := NewInMemoryStickyBucketService()
	meta := []VariationMeta{{Key: "0"}, {Key: "1"}}

	require.NoError(t, SaveStickyBucketAssignment("my-test", 0, "1", svc, "id", "user-1", nil))

	attrs := Attributes{"id": value.Str("user-1")}
	res, err := GetStickyBucketVariation("my-test", 1, 1, meta, svc, "id", "", attrs, nil)
	require.NoError(t, err)
	require.True(t, res.VersionIsBlocked)
}

func TestStickyBucketFallbackAttributeUsedWhenPrimaryMissing(t *testing.T) {
	svc := NewInMemoryStickyBucketService()
	meta := []VariationMeta{{Key: "0"}, {Key: "1"}}

	require.NoError(t, SaveStickyBucketAssignment("my-test", 0, "0", svc, "deviceId", "device-9", nil))

	attrs := Attributes{"deviceId": value.Str("device-9")}
	res, err := GetStickyBucketVariation("my-test", 0, 0, meta, svc, "id", "deviceId", attrs, nil)
	require.NoError(t, err)
	require.Equal(t, 0, res.Variation)
}

func TestStickyBucketPrimaryAttributeWinsOverFallback(t *testing.T) {
	svc := NewInMemoryStickyBucketService()
	meta := []VariationMeta{{Key: "0"}, {Key: "1"}}

	require.NoError(t, SaveStickyBucketAssignment("my-test", 0, "0", svc, "deviceId", "device-9", nil))
	require.NoError(t, SaveStickyBucketAssignment("my-test", 0, "1", svc, "id", "user-1", nil))

	attrs := Attributes{"id": value.Str("user-1"), "deviceId": value.Str("device-9")}
	res, err := GetStickyBucketVariation("my-test", 0, 0, meta, svc, "id", "deviceId", attrs, nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.Variation)
}

func TestStickyBucketSavingSameVariationTwiceIsIdempotent(t *testing.T) {
	svc := NewInMemoryStickyBucketService()
	meta := []VariationMeta{{Key: "0"}, {Key: "1"}}

	require.NoError(t, SaveStickyBucketAssignment("my-test", 0, "1", svc, "id", "user-1", nil))
	require.NoError(t, SaveStickyBucketAssignment("my-test", 0, "1", svc, "id", "user-1", nil))

	attrs := Attributes{"id": value.Str("user-1")}
	res, err := GetStickyBucketVariation("my-test", 0, 0, meta, svc, "id", "", attrs, nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.Variation)

	doc, err := svc.GetAssignments("id", "user-1")
	require.NoError(t, err)
	require.Len(t, doc.Assignments, 1)
}

func TestStickyBucketCachePopulatedAfterLookup(t *testing.T) {
	svc := NewInMemoryStickyBucketService()
	meta := []VariationMeta{{Key: "0"}, {Key: "1"}}
	require.NoError(t, SaveStickyBucketAssignment("my-test", 0, "1", svc, "id", "user-1", nil))

	cache := StickyBucketAssignments{}
	attrs := Attributes{"id": value.Str("user-1")}
	_, err := GetStickyBucketVariation("my-test", 0, 0, meta, svc, "id", "", attrs, cache)
	require.NoError(t, err)
	require.Contains(t, cache, stickyBucketKey("id", "user-1"))
}
