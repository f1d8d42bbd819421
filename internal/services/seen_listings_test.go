package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/miciek335/vinted-listing-tracker/internal/repositories"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SeenListings_WhenStoreFails_ShouldStartEmpty(t *testing.T) {
	seen := NewSeenListings(&memoryStore{ids: []string{"A"}, loadErr: errors.New("corrupt")})

	assert.Equal(t, 0, seen.Load(context.Background()))
	assert.False(t, seen.Contains("A"))
}

func Test_SeenListings_MarkNew(t *testing.T) {
	seen := NewSeenListings(&memoryStore{})

	assert.True(t, seen.MarkNew("A"))
	assert.False(t, seen.MarkNew("A"))
	assert.Equal(t, 1, seen.Len())
}

func Test_SeenListings_WhenPersistedToFile_ShouldSurviveRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen_listings.json")

	first := NewSeenListings(repositories.NewSeenFile(path))
	first.Load(context.Background())
	first.Add("300", "100", "200")
	require.NoError(t, first.Persist(context.Background()))

	second := NewSeenListings(repositories.NewSeenFile(path))
	assert.Equal(t, 3, second.Load(context.Background()))
	assert.Equal(t, []string{"100", "200", "300"}, second.IDs())
}

func Test_SeenListings_WhenFileIsCorrupt_ShouldStartEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen_listings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	seen := NewSeenListings(repositories.NewSeenFile(path))

	assert.Equal(t, 0, seen.Load(context.Background()))
}
