package memory

import (
	"context"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seafood-tracker/mobile-bff/internal/cache"
)

func testTime() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestGetSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	_, err := s.Get(ctx, "items:1")
	require.ErrorIs(t, err, cache.ErrNoItem)

	require.NoError(t, s.Set(ctx, "items:1", []byte(`{"id":1}`), time.Minute))

	got, err := s.Get(ctx, "items:1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":1}`), got)
}

func TestExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	now := testTime()
	s := NewWithTimeFunc(func() time.Time { return now })

	require.NoError(t, s.Set(ctx, "markets:list", []byte(`[]`), 30*time.Minute))

	now = testTime().Add(29 * time.Minute)
	_, err := s.Get(ctx, "markets:list")
	assert.NoError(t, err)

	now = testTime().Add(30 * time.Minute)
	_, err = s.Get(ctx, "markets:list")
	assert.ErrorIs(t, err, cache.ErrNoItem)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	require.NoError(t, s.Set(ctx, "items:1", []byte(`{}`), time.Minute))
	require.NoError(t, s.Delete(ctx, "items:1"))

	_, err := s.Get(ctx, "items:1")
	assert.ErrorIs(t, err, cache.ErrNoItem)

	// deleting an absent key is a no-op
	assert.NoError(t, s.Delete(ctx, "items:1"))
}

func TestDeletePattern(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	keys := []string{"items:7", "items:7:dashboard:20250105", "items:8", "markets:list"}
	for _, k := range keys {
		require.NoError(t, s.Set(ctx, k, []byte(`{}`), time.Minute))
	}

	require.NoError(t, s.DeletePattern(ctx, "items:7*"))

	for _, k := range []string{"items:7", "items:7:dashboard:20250105"} {
		_, err := s.Get(ctx, k)
		assert.ErrorIs(t, err, cache.ErrNoItem, k)
	}
	for _, k := range []string{"items:8", "markets:list"} {
		_, err := s.Get(ctx, k)
		assert.NoError(t, err, k)
	}

	// a pattern matching nothing is a no-op
	assert.NoError(t, s.DeletePattern(ctx, "nothing:*"))

	err := s.DeletePattern(ctx, "items:[7")
	assert.ErrorIs(t, err, path.ErrBadPattern)
}
