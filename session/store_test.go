package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")

	store := NewFileStore(path)
	require.Nil(t, store.Token())

	err := store.Save(NewBearerToken("tok-12345"))
	require.NoError(t, err)
	require.NotNil(t, store.Token())
	assert.Equal(t, "tok-12345", store.Token().AccessToken)

	// A fresh store on the same path picks the credential up from disk
	reloaded := NewFileStore(path)
	require.NotNil(t, reloaded.Token())
	assert.Equal(t, "tok-12345", reloaded.Token().AccessToken)
	assert.Equal(t, "Bearer", reloaded.Token().TokenType)
}

func TestFileStore_MissingFileStartsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	assert.Nil(t, store.Token())
}

func TestFileStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := NewFileStore(path)
	assert.Nil(t, store.Token())
}

func TestFileStore_ClearIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save(NewBearerToken("tok-12345")))
	require.NoError(t, store.Clear())
	assert.Nil(t, store.Token())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "token file should be removed")

	// Clearing an already-empty store is a no-op
	require.NoError(t, store.Clear())
}

func TestFileStore_SaveKeepsMemoryOnDiskFailure(t *testing.T) {
	// Point the store at a path whose parent directory does not exist
	path := filepath.Join(t.TempDir(), "missing-dir", "token.json")
	store := NewFileStore(path)

	err := store.Save(NewBearerToken("tok-12345"))
	require.Error(t, err)

	// The live session survives the storage failure
	require.NotNil(t, store.Token())
	assert.Equal(t, "tok-12345", store.Token().AccessToken)
}

func TestFileStore_ConcurrentSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := NewFileStore(path)

	const goroutines = 10
	var wg sync.WaitGroup

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			err := store.Save(NewBearerToken(fmt.Sprintf("tok-%d", id)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Last writer wins; the file must hold one intact credential
	reloaded := NewFileStore(path)
	require.NotNil(t, reloaded.Token())
	assert.Contains(t, reloaded.Token().AccessToken, "tok-")

	// No temp or lock files remain
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should not remain")
	_, err = os.Stat(path + ".lock")
	assert.True(t, os.IsNotExist(err), "lock file should not remain")
}

func TestFileStore_SaveOverwritesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save(NewBearerToken("tok-first")))
	require.NoError(t, store.Save(NewBearerToken("tok-second")))

	assert.Equal(t, "tok-second", store.Token().AccessToken)
	reloaded := NewFileStore(path)
	require.NotNil(t, reloaded.Token())
	assert.Equal(t, "tok-second", reloaded.Token().AccessToken)
}
