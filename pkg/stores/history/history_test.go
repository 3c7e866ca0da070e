package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "last_history_id.txt"))

	id, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestSaveThenLoad(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "last_history_id.txt"))

	require.NoError(t, store.Save("123456"))

	id, ok, err := store.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "123456", id)
}

func TestSaveOverwrites(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "last_history_id.txt"))

	require.NoError(t, store.Save("111"))
	require.NoError(t, store.Save("222"))

	id, ok, err := store.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "222", id)
}

func TestLoadTrimsWhitespace(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "last_history_id.txt"))

	require.NoError(t, store.Save("  98765  "))

	id, ok, err := store.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "98765", id)
}
