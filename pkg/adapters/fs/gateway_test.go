package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/wingnotes/pkg/adapters/fs"
	"github.com/aretw0/wingnotes/pkg/core"
)

func newGateway(t *testing.T, cfg fs.Config) *fs.Gateway {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = t.TempDir()
	}
	gw := fs.NewGateway(cfg)
	require.NoError(t, gw.Initialize(context.Background()))
	return gw
}

func TestGateway_GetSet(t *testing.T) {
	ctx := context.Background()
	gw := newGateway(t, fs.Config{})

	_, err := gw.Get(ctx, "wingnotes-data")
	assert.ErrorIs(t, err, core.ErrKeyNotFound)

	require.NoError(t, gw.Set(ctx, "wingnotes-data", `[{"id":"n1"}]`))
	got, err := gw.Get(ctx, "wingnotes-data")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"n1"}]`, got)

	require.NoError(t, gw.Set(ctx, "wingnotes-data", "[]"))
	got, _ = gw.Get(ctx, "wingnotes-data")
	assert.Equal(t, "[]", got)

	onDisk, err := os.ReadFile(filepath.Join(gw.Path, "wingnotes-data"+fs.FileExt))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(onDisk))

	keys, err := gw.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"wingnotes-data"}, keys)

	state := gw.State().(fs.GatewayState)
	assert.Equal(t, 2, state.Writes)
	assert.NotNil(t, state.LastWrite)
	assert.Equal(t, fs.DefaultSystemDir, state.SystemDir)
	assert.Equal(t, "fs", gw.ComponentType())
}

func TestGateway_Initialize(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesDirectories", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "notebook")
		gw := fs.NewGateway(fs.Config{Path: dir, SystemDir: ".custom"})
		require.NoError(t, gw.Initialize(ctx))
		assert.DirExists(t, filepath.Join(dir, ".custom"))
	})

	t.Run("MustExist", func(t *testing.T) {
		gw := fs.NewGateway(fs.Config{Path: filepath.Join(t.TempDir(), "missing"), MustExist: true})
		assert.ErrorContains(t, gw.Initialize(ctx), "does not exist")
	})

	t.Run("NotADirectory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, nil, 0644))
		gw := fs.NewGateway(fs.Config{Path: file, MustExist: true})
		assert.ErrorContains(t, gw.Initialize(ctx), "not a directory")
	})
}

func TestGateway_InvalidKeys(t *testing.T) {
	ctx := context.Background()
	gw := newGateway(t, fs.Config{})

	for _, key := range []string{"", ".hidden", "../escape", `a\b`, "sub/key", fs.TempFilePrefix + "x"} {
		assert.ErrorIs(t, gw.Set(ctx, key, "x"), fs.ErrInvalidKey, "key %q", key)
		_, err := gw.Get(ctx, key)
		assert.ErrorIs(t, err, fs.ErrInvalidKey, "key %q", key)
	}
}

func TestGateway_ReadOnly(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "k"+fs.FileExt), []byte("stored"), 0644))

	gw := newGateway(t, fs.Config{Path: dir, ReadOnly: true})

	got, err := gw.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "stored", got)
	assert.ErrorIs(t, gw.Set(ctx, "k", "changed"), fs.ErrReadOnly)
	assert.NoDirExists(t, filepath.Join(dir, fs.DefaultSystemDir), "read-only must not create anything")
}

func TestGateway_Quota(t *testing.T) {
	ctx := context.Background()
	gw := newGateway(t, fs.Config{Quota: 10})

	require.NoError(t, gw.Set(ctx, "a", "12345"))
	// Replacing a key only counts its new size.
	require.NoError(t, gw.Set(ctx, "a", "1234567"))
	require.NoError(t, gw.Set(ctx, "b", "123"))

	err := gw.Set(ctx, "c", "1")
	assert.ErrorIs(t, err, fs.ErrQuotaExceeded)

	got, _ := gw.Get(ctx, "a")
	assert.Equal(t, "1234567", got, "a rejected write leaves stored data intact")
	_, err = gw.Get(ctx, "c")
	assert.ErrorIs(t, err, core.ErrKeyNotFound)
}

func TestGateway_LockTimeout(t *testing.T) {
	ctx := context.Background()
	gw := newGateway(t, fs.Config{LockTimeout: 50 * time.Millisecond})

	// Another process holds the lock.
	lock := filepath.Join(gw.Path, fs.DefaultSystemDir, "write.lock")
	require.NoError(t, os.WriteFile(lock, []byte("4242\n"), 0644))

	start := time.Now()
	err := gw.Set(ctx, "k", "v")
	assert.ErrorIs(t, err, fs.ErrLockTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	require.NoError(t, os.Remove(lock))
	require.NoError(t, gw.Set(ctx, "k", "v"))
	assert.NoFileExists(t, lock, "the lock is released after the write")
}

func TestGateway_StoreIntegration(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	gw := newGateway(t, fs.Config{Path: dir})
	s := core.NewStore(gw, core.WithDebounce(time.Hour))
	require.NoError(t, s.Load(ctx))
	s.AddNote("Persisted")
	require.NoError(t, s.Close(ctx))

	reopened := core.NewStore(newGateway(t, fs.Config{Path: dir}))
	require.NoError(t, reopened.Load(ctx))
	notes := reopened.Notes()
	require.Len(t, notes, 2)
	assert.Equal(t, "Persisted", notes[1].Title)

	data, err := os.ReadFile(filepath.Join(dir, core.DefaultStorageKey+fs.FileExt))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[{"))
}
