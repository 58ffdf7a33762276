package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"benchkeep/internal/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := NewFileSource(filepath.Join(dir, "nested", "benchmark-data.json"))

	// Absent file loads as an empty history
	h, err := LoadFrom(ctx, src)
	require.NoError(t, err)
	assert.Empty(t, h.Entries)

	require.NoError(t, h.AppendRun("cargo", runAt("abc", epoch), 0))
	require.NoError(t, SaveTo(ctx, src, h))

	loaded, err := LoadFrom(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, h.Entries, loaded.Entries)
	assert.True(t, h.LastUpdated.Equal(*loaded.LastUpdated))
}

func TestFileSourceCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	_, err := LoadFrom(context.Background(), NewFileSource(path))
	assert.True(t, errs.IsParse(err))
	assert.Contains(t, err.Error(), path)
}

func TestLocalBucketSource(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	src, err := NewBucketSource(ctx, BucketOptions{
		Type:   BucketLocal,
		Name:   filepath.Join(t.TempDir(), "bucket"),
		Prefix: "bench",
		Key:    "data.json",
	})
	require.NoError(t, err)

	h, err := LoadFrom(ctx, src)
	require.NoError(t, err)
	assert.Empty(t, h.Entries)

	require.NoError(t, h.AppendRun("go", runAt("abc", epoch), 5))
	require.NoError(t, SaveTo(ctx, src, h))

	loaded, err := LoadFrom(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, h.Entries, loaded.Entries)
}

func TestBucketSourceRejectsBadOptions(t *testing.T) {
	ctx := context.Background()

	_, err := NewBucketSource(ctx, BucketOptions{Type: BucketLocal, Name: t.TempDir()})
	assert.True(t, errs.IsConfig(err))

	_, err = NewBucketSource(ctx, BucketOptions{Type: "ftp", Name: "x", Key: "k"})
	assert.True(t, errs.IsConfig(err))
}
