package storage

import (
	"context"
	"io"
	"testing"

	"github.com/jjudge-oj/livefeed/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("feeds")
	require.NoError(t, m.EnsureBucket(ctx))
	require.NoError(t, PutBytes(ctx, m, "b.ndjson", []byte("two"), "application/x-ndjson"))
	require.NoError(t, PutBytes(ctx, m, "a.ndjson", []byte("one"), "application/x-ndjson"))
	assert.Equal(t, []string{"a.ndjson", "b.ndjson"}, m.Keys())

	rc, err := m.Get(ctx, "a.ndjson")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	require.NoError(t, m.Delete(ctx, "a.ndjson"))
	_, err = m.Get(ctx, "a.ndjson")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "feeds", m.Bucket())
}

func TestNewWithoutBackend(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Backend: config.BackendNone})
	assert.ErrorIs(t, err, ErrNoBackend)
}
