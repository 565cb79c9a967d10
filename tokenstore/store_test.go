package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Save(ctx, "t1"))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t1", got)

	require.NoError(t, s.Save(ctx, "t2"))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t2", got)

	require.NoError(t, s.Delete(ctx))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	// deleting an absent token is not an error
	require.NoError(t, s.Delete(ctx))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, &Memory{})

	seeded := NewMemory("seed")
	got, err := seeded.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "seed", got)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.yaml")
	s, err := NewFile(path, DefaultKey)
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStoreKeepsOtherProfiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	ctx := context.Background()

	work, err := NewFile(path, "work")
	require.NoError(t, err)
	home, err := NewFile(path, "home")
	require.NoError(t, err)

	require.NoError(t, work.Save(ctx, "w-token"))
	require.NoError(t, home.Save(ctx, "h-token"))
	require.NoError(t, work.Delete(ctx))

	got, err := home.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "h-token", got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tokens: [not, a, map"), 0o600))

	s, err := NewFile(path, DefaultKey)
	require.NoError(t, err)
	_, err = s.Load(context.Background())
	assert.Error(t, err)
}

func TestNewFileValidation(t *testing.T) {
	_, err := NewFile("", DefaultKey)
	assert.Error(t, err)
	_, err = NewFile("x.yaml", " ")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestRedisStore(t *testing.T) {
	_, client := newTestRedis(t)
	s, err := NewRedis(client, RedisConfig{Prefix: "dms"})
	require.NoError(t, err)
	assert.Equal(t, "dms:token", s.Key())
	exerciseStore(t, s)
}

func TestRedisStoreTTL(t *testing.T) {
	mr, client := newTestRedis(t)
	s, err := NewRedis(client, RedisConfig{Key: "alice", TTL: time.Minute})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "t1"))
	assert.Equal(t, time.Minute, mr.TTL("alice"))

	mr.FastForward(2 * time.Minute)
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()

	s, err := NewRedis(client, RedisConfig{})
	require.NoError(t, err)

	mr.Close()
	_, err = s.Load(context.Background())
	assert.ErrorIs(t, err, ErrRedisUnavailable)
}

func TestNewRedisValidation(t *testing.T) {
	_, err := NewRedis(nil, RedisConfig{})
	assert.Error(t, err)

	_, client := newTestRedis(t)
	_, err = NewRedis(client, RedisConfig{TTL: -time.Second})
	assert.Error(t, err)
}
