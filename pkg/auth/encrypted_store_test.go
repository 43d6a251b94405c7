package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *EncryptedFileStore {
	t.Helper()
	t.Setenv("WPEXPORT_CREDENTIALS_KEY", "test-passphrase")

	store, err := NewEncryptedFileStore(filepath.Join(t.TempDir(), "credentials.enc"))
	require.NoError(t, err)
	return store
}

func testAccount(name string) *Account {
	return &Account{
		Name:         name,
		AccessToken:  "token-" + name,
		TenantID:     "tenant-1",
		APIVersion:   "v20.0",
		LastModified: time.Now(),
	}
}

func TestEncryptedStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Store(testAccount("default")))

	account, err := store.Retrieve("default")
	require.NoError(t, err)
	assert.Equal(t, "default", account.Name)
	assert.Equal(t, "token-default", account.AccessToken)
	assert.Equal(t, "tenant-1", account.TenantID)
}

func TestEncryptedStoreFileIsOpaque(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Store(testAccount("default")))

	content, err := os.ReadFile(store.filepath)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "token-default", "token must not appear in plaintext")

	info, err := os.Stat(store.filepath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestEncryptedStoreMultipleAccounts(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Store(testAccount("default")))
	require.NoError(t, store.Store(testAccount("staging")))

	accounts, err := store.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestEncryptedStoreUpdateAccount(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Store(testAccount("default")))

	updated := testAccount("default")
	updated.AccessToken = "rotated-token"
	require.NoError(t, store.Store(updated))

	account, err := store.Retrieve("default")
	require.NoError(t, err)
	assert.Equal(t, "rotated-token", account.AccessToken)

	accounts, err := store.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestEncryptedStoreDelete(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Store(testAccount("default")))
	require.NoError(t, store.Store(testAccount("staging")))

	require.NoError(t, store.Delete("staging"))
	assert.False(t, store.Exists("staging"))
	assert.True(t, store.Exists("default"))

	// Deleting the last account removes the file entirely
	require.NoError(t, store.Delete("default"))
	_, err := os.Stat(store.filepath)
	assert.True(t, os.IsNotExist(err))
}

func TestEncryptedStoreDeleteMissing(t *testing.T) {
	store := newTestStore(t)
	assert.ErrorIs(t, store.Delete("ghost"), ErrCredentialsNotFound)
}

func TestEncryptedStoreRetrieveMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Retrieve("ghost")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEncryptedStoreRejectsInvalidInput(t *testing.T) {
	store := newTestStore(t)

	assert.ErrorIs(t, store.Store(nil), ErrInvalidCredentials)
	assert.ErrorIs(t, store.Store(&Account{}), ErrInvalidCredentials)

	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestEncryptedStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")

	t.Setenv("WPEXPORT_CREDENTIALS_KEY", "first-passphrase")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(testAccount("default")))

	t.Setenv("WPEXPORT_CREDENTIALS_KEY", "different-passphrase")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	_, err = other.Retrieve("default")
	assert.Error(t, err)
}
