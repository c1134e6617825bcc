package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/ascent/internal/game/session"
	"github.com/cory-johannsen/ascent/internal/storage/postgres"
	"github.com/cory-johannsen/ascent/internal/testutil"
)

var _ session.Progress = (*postgres.ProgressRepository)(nil)

func TestSaveInventory_RejectsNegativeCount(t *testing.T) {
	repo := postgres.NewProgressRepository(nil)
	err := repo.SaveInventory(context.Background(), map[string]int{"medkit": -1})
	assert.ErrorIs(t, err, postgres.ErrNegativeCount)
}

func TestProgressRepository(t *testing.T) {
	repo := postgres.NewProgressRepository(testutil.NewPool(t))
	ctx := context.Background()

	t.Run("empty database", func(t *testing.T) {
		ids, err := repo.LoadDefeated(ctx)
		require.NoError(t, err)
		assert.Empty(t, ids)

		counts, err := repo.LoadInventory(ctx)
		require.NoError(t, err)
		assert.Empty(t, counts)
	})

	t.Run("mark defeated is idempotent", func(t *testing.T) {
		require.NoError(t, repo.MarkDefeated(ctx, "flame_titan"))
		require.NoError(t, repo.MarkDefeated(ctx, "npc-1-0"))
		require.NoError(t, repo.MarkDefeated(ctx, "flame_titan"))

		ids, err := repo.LoadDefeated(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"flame_titan", "npc-1-0"}, ids)
	})

	t.Run("save inventory overwrites counts", func(t *testing.T) {
		require.NoError(t, repo.SaveInventory(ctx, map[string]int{"medkit": 2, "fireOil": 1}))
		require.NoError(t, repo.SaveInventory(ctx, map[string]int{"medkit": 1, "iceCharm": 0}))

		counts, err := repo.LoadInventory(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"medkit": 1, "fireOil": 1, "iceCharm": 0}, counts)
	})

	t.Run("failed save leaves counts untouched", func(t *testing.T) {
		before, err := repo.LoadInventory(ctx)
		require.NoError(t, err)

		err = repo.SaveInventory(ctx, map[string]int{"medkit": 9, "bandages": -3})
		require.ErrorIs(t, err, postgres.ErrNegativeCount)

		after, err := repo.LoadInventory(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("inventory round trips any non-negative counts", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			counts := rapid.MapOf(
				rapid.SampledFrom([]string{"fireOil", "poisonVial", "medkit", "smokeBomb"}),
				rapid.IntRange(0, 50),
			).Draw(rt, "counts")
			if err := repo.SaveInventory(ctx, counts); err != nil {
				rt.Fatalf("SaveInventory: %v", err)
			}
			got, err := repo.LoadInventory(ctx)
			if err != nil {
				rt.Fatalf("LoadInventory: %v", err)
			}
			for id, n := range counts {
				if got[id] != n {
					rt.Fatalf("%s = %d, want %d", id, got[id], n)
				}
			}
		})
	})
}
