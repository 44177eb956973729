package multikv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vsirisanthana/dogbutler/store/memstore"
)

func TestNewRejectsNoTiersNilOrDuplicate(t *testing.T) {
	require.Nil(t, New(), "New() with no tiers should return nil")

	tier := memstore.New(nil)
	require.Nil(t, New(tier, nil), "New() with a nil tier should return nil")
	require.Nil(t, New(tier, tier), "New() with a duplicate tier should return nil")
}

func TestGetPromotesToFasterTiers(t *testing.T) {
	ctx := context.Background()
	fast := memstore.New(nil)
	slow := memstore.New(nil)
	s := New(fast, slow)

	require.NoError(t, slow.Set(ctx, "k", []byte("v"), 0))

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", string(got))

	_, ok, _ = fast.Get(ctx, "k")
	require.True(t, ok, "value found in the slow tier was not promoted to the fast tier")
}

func TestSetWritesToAllTiers(t *testing.T) {
	ctx := context.Background()
	fast := memstore.New(nil)
	slow := memstore.New(nil)
	s := New(fast, slow)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))

	_, ok, _ := fast.Get(ctx, "k")
	require.True(t, ok, "fast tier missing value after Set")
	_, ok, _ = slow.Get(ctx, "k")
	require.True(t, ok, "slow tier missing value after Set")
}

func TestDeleteRemovesFromAllTiers(t *testing.T) {
	ctx := context.Background()
	fast := memstore.New(nil)
	slow := memstore.New(nil)
	s := New(fast, slow)
	require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, s.Delete(ctx, "k"))

	_, ok, _ := fast.Get(ctx, "k")
	require.False(t, ok, "fast tier still has value after Delete")
	_, ok, _ = slow.Get(ctx, "k")
	require.False(t, ok, "slow tier still has value after Delete")
}
