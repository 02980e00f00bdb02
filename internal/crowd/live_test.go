package crowd

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLiveStore(t *testing.T) (*LiveStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := NewLiveStore("redis://" + s.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, s
}

func TestSetAndGetLevel(t *testing.T) {
	store, _ := setupLiveStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetLevel(ctx, 3, DirectionNB, LevelHeavy))

	level, ok, err := store.Level(ctx, 3, DirectionNB)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, LevelHeavy, level)
}

func TestLevelMiss(t *testing.T) {
	store, _ := setupLiveStore(t)
	ctx := context.Background()

	_, ok, err := store.Level(ctx, 3, DirectionNB)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLevelsArePerPlatform(t *testing.T) {
	store, _ := setupLiveStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetLevel(ctx, 3, DirectionNB, LevelHeavy))
	require.NoError(t, store.SetLevel(ctx, 3, DirectionSB, LevelLight))
	require.NoError(t, store.SetLevel(ctx, 4, DirectionNB, LevelModerate))

	level, _, err := store.Level(ctx, 3, DirectionSB)
	require.NoError(t, err)
	assert.Equal(t, LevelLight, level)

	level, _, err = store.Level(ctx, 4, DirectionNB)
	require.NoError(t, err)
	assert.Equal(t, LevelModerate, level)
}

func TestLevelExpires(t *testing.T) {
	store, s := setupLiveStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetLevel(ctx, 3, DirectionNB, LevelHeavy))

	s.FastForward(DefaultLiveTTL * 2)

	_, ok, err := store.Level(ctx, 3, DirectionNB)
	require.NoError(t, err)
	assert.False(t, ok, "stale report should fall back to historical estimate")
}

func TestNewLiveStoreBadURL(t *testing.T) {
	_, err := NewLiveStore("not-a-url")
	assert.Error(t, err)
}
