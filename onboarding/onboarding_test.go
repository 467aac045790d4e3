package onboarding

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) core.ProfileStore

func stores() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) core.ProfileStore { return NewInMemoryStore() },
		"sqlite": func(t *testing.T) core.ProfileStore {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "onboarding.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func glowProfile() core.Profile {
	return core.Profile{
		BrandName:         "Glow",
		Industry:          "Beauty",
		Product:           "Vegan serum",
		CampaignObjective: "Launch",
		Channels:          []string{"Instagram", "TikTok"},
		AgeRange:          "25-34",
		Interests:         "clean beauty",
		BrandDocVectorIDs: []string{"vec-1"},
	}
}

func TestProfileStores(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			_, err := s.Latest(ctx)
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = s.Get(ctx, "missing")
			assert.ErrorIs(t, err, core.ErrProfileNotFound)

			saved, err := s.Save(ctx, glowProfile())
			require.NoError(t, err)
			assert.NotEmpty(t, saved.ID)
			assert.False(t, saved.CreatedAt.IsZero())

			got, err := s.Get(ctx, saved.ID)
			require.NoError(t, err)
			assert.Equal(t, "Glow", got.BrandName)
			assert.Equal(t, []string{"Instagram", "TikTok"}, got.Channels)
			assert.Equal(t, []string{"vec-1"}, got.BrandDocVectorIDs)
			assert.Empty(t, got.AudienceDocVectorIDs)
			assert.WithinDuration(t, saved.CreatedAt, got.CreatedAt, time.Millisecond)

			later := glowProfile()
			later.BrandName = "Glow 2"
			later.CreatedAt = saved.CreatedAt.Add(time.Hour)
			_, err = s.Save(ctx, later)
			require.NoError(t, err)

			latest, err := s.Latest(ctx)
			require.NoError(t, err)
			assert.Equal(t, "Glow 2", latest.BrandName)

			all, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "Glow", all[0].BrandName)

			saved.Product = "Night cream"
			_, err = s.Save(ctx, saved)
			require.NoError(t, err)
			got, err = s.Get(ctx, saved.ID)
			require.NoError(t, err)
			assert.Equal(t, "Night cream", got.Product)

			all, err = s.List(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 2)
		})
	}
}

func TestInMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	saved, err := s.Save(ctx, glowProfile())
	require.NoError(t, err)
	saved.Channels[0] = "mutated"

	got, err := s.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Instagram", got.Channels[0])
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "onboarding.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	saved, err := s.Save(ctx, glowProfile())
	require.NoError(t, err)
	require.NoError(t, s.Health(ctx))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.BrandName, got.BrandName)
}
