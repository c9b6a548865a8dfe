package keyring

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func useMockKeyring(t *testing.T) {
	t.Helper()
	keyring.MockInit()
	initOnce = sync.Once{}
	useLocalStorage = false
}

func useLocalStore(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	initOnce.Do(func() {})
	useLocalStorage = true
	localStoreFile = filepath.Join(t.TempDir(), ".credentials")
	encryptionKey = make([]byte, 32)
	localStore = make(map[string]string)
}

func TestAccount(t *testing.T) {
	assert.Equal(t, "alice@vpn.example.com", Account(" Alice ", "VPN.example.com"))
}

func TestStoreGetDelete_SystemKeyring(t *testing.T) {
	useMockKeyring(t)
	account := Account("alice", "vpn.example.com")

	require.NoError(t, Store(account, "s3cret"))
	assert.True(t, Exists(account))

	got, err := Get(account)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	require.NoError(t, Delete(account))
	_, err = Get(account)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, Delete(account), ErrNotFound)
}

func TestStoreGetDelete_LocalStore(t *testing.T) {
	useLocalStore(t)
	account := Account("bob", "vpn.example.com")

	require.NoError(t, Store(account, "hunter2"))
	assert.FileExists(t, localStoreFile)

	// Reload from disk.
	localStore = make(map[string]string)
	loadLocalStore()

	got, err := Get(account)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)

	require.NoError(t, Delete(account))
	assert.False(t, Exists(account))
}

func TestStore_RejectsEmptyValues(t *testing.T) {
	useMockKeyring(t)

	assert.Error(t, Store("", "x"))
	assert.Error(t, Store("a@b", ""))
	_, err := Get("")
	assert.Error(t, err)
	assert.Error(t, Delete(""))
}

func TestEncryptDecrypt(t *testing.T) {
	encryptionKey = make([]byte, 32)

	ciphertext, err := encrypt([]byte("payload"))
	require.NoError(t, err)

	plaintext, err := decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(plaintext))

	_, err = decrypt([]byte("AAAA"))
	assert.Error(t, err)
}
