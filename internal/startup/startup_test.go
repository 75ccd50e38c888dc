package startup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miamiwave/internal/record"
	"github.com/miamiwave/internal/record/memory"
)

const seedYAML = `
collections:
  app_User:
    - {Id: 3, username: ana, name: Ana, followers: 10, is_following: false}
    - {username: bob, name: Bob}
  post:
    - Id: 1
      content: "Sunset #miami"
      hashtags: [miami, sunset]
      timestamp: 2026-01-02T15:04:05Z
      likes: 4
`

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestSeedFromFile(t *testing.T) {
	store := memory.New()
	require.NoError(t, SeedFromFile(store, writeSeed(t, seedYAML)))
	ctx := context.Background()

	ana, err := store.GetByID(ctx, record.CollectionUser, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, "ana", ana.String("username"))
	assert.EqualValues(t, 10, ana.Int("followers"))

	bob, err := store.GetByID(ctx, record.CollectionUser, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, "bob", bob.String("username"))

	post, err := store.GetByID(ctx, record.CollectionPost, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"miami", "sunset"}, post.List("hashtags"))
	assert.Equal(t, "2026-01-02T15:04:05.000000000Z", post.String("timestamp"))
	assert.IsType(t, int64(0), post["likes"])
}

func TestSeedFromFile_EmptyPathIsNoop(t *testing.T) {
	assert.NoError(t, SeedFromFile(memory.New(), ""))
}

func TestLoadSeed_Errors(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadSeed(writeSeed(t, "collections: [unclosed"))
	assert.Error(t, err)
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	initialBackoff = time.Millisecond
	t.Cleanup(func() { initialBackoff = 2 * time.Second })
	calls := 0
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	err := retry(ctx, time.Hour, "op", func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("boom")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetry_GivesUpAfterDeadline(t *testing.T) {
	boom := errors.New("boom")
	err := retry(context.Background(), -time.Second, "op", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := retry(ctx, time.Hour, "op", func(context.Context) error { return errors.New("boom") })
	assert.ErrorIs(t, err, context.Canceled)
}
