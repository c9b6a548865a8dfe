// Package keyring provides secure credential storage.
// It uses the system keyring (Windows Credential Manager) when available,
// falling back to encrypted local file storage when not.
package keyring

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/argon2"

	"github.com/yllada/anyconnect-autologin/common"
)

const (
	// serviceName is the identifier used in the system keyring.
	serviceName = "anyconnect-autologin"
)

// Common errors returned by keyring operations.
var (
	ErrNotFound = common.ErrCredentialsNotFound
	ErrStorage  = common.ErrCredentialStorage
)

// Storage backend state
var (
	initOnce        sync.Once
	useLocalStorage bool
	localStoreMu    sync.RWMutex
	localStore      map[string]string
	localStoreFile  string
	encryptionKey   []byte
)

// Account builds the keyring account name for a user on a VPN domain.
func Account(username, domain string) string {
	return strings.ToLower(strings.TrimSpace(username)) + "@" + strings.ToLower(strings.TrimSpace(domain))
}

func ensureInit() {
	initOnce.Do(initStorage)
}

func initStorage() {
	// Try system keyring first
	testKey := serviceName + "-test-init"
	if err := keyring.Set(serviceName, testKey, "test"); err == nil {
		_ = keyring.Delete(serviceName, testKey)
		useLocalStorage = false
		return
	}
	common.LogWarn("System keyring unavailable, using encrypted local credential store")
	useLocalStorage = true
	initLocalStorage()
}

func initLocalStorage() {
	configDir, err := common.GetConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	localStoreFile = filepath.Join(configDir, common.CredentialsFileName)

	// Derive the encryption key from machine-specific data
	hostname, _ := os.Hostname()
	keyData := fmt.Sprintf("%s-%s-%s", serviceName, hostname, machineID())
	encryptionKey = argon2.IDKey([]byte(keyData), []byte(serviceName), 1, 64*1024, 4, 32)

	localStore = make(map[string]string)
	loadLocalStore()
}

func loadLocalStore() {
	data, err := os.ReadFile(localStoreFile)
	if err != nil {
		return
	}

	decrypted, err := decrypt(data)
	if err != nil {
		common.LogWarn("Ignoring unreadable credential store %s: %v", localStoreFile, err)
		return
	}

	localStoreMu.Lock()
	defer localStoreMu.Unlock()
	_ = json.Unmarshal(decrypted, &localStore)
}

func saveLocalStore() error {
	localStoreMu.RLock()
	data, err := json.Marshal(localStore)
	localStoreMu.RUnlock()
	if err != nil {
		return err
	}

	encrypted, err := encrypt(data)
	if err != nil {
		return err
	}

	if err := os.WriteFile(localStoreFile, encrypted, 0600); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

func encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return []byte(base64.StdEncoding.EncodeToString(ciphertext)), nil
}

func decrypt(data []byte) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(string(data))
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func storeLocal(account, password string) error {
	localStoreMu.Lock()
	localStore[account] = password
	localStoreMu.Unlock()
	return saveLocalStore()
}

// Store saves a password for an account.
func Store(account string, password string) error {
	if account == "" {
		return errors.New("account cannot be empty")
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}
	ensureInit()

	if useLocalStorage {
		return storeLocal(account, password)
	}

	if err := keyring.Set(serviceName, account, password); err != nil {
		common.LogWarn("System keyring write failed, falling back to local store: %v", err)
		useLocalStorage = true
		initLocalStorage()
		return storeLocal(account, password)
	}
	return nil
}

// Get retrieves the password for an account.
func Get(account string) (string, error) {
	if account == "" {
		return "", errors.New("account cannot be empty")
	}
	ensureInit()

	if useLocalStorage {
		localStoreMu.RLock()
		password, exists := localStore[account]
		localStoreMu.RUnlock()
		if !exists {
			return "", ErrNotFound
		}
		return password, nil
	}

	password, err := keyring.Get(serviceName, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("keyring read failed: %w", err)
	}
	return password, nil
}

// Delete removes the password for an account.
func Delete(account string) error {
	if account == "" {
		return errors.New("account cannot be empty")
	}
	ensureInit()

	if useLocalStorage {
		localStoreMu.Lock()
		_, exists := localStore[account]
		delete(localStore, account)
		localStoreMu.Unlock()
		if !exists {
			return ErrNotFound
		}
		return saveLocalStore()
	}

	if err := keyring.Delete(serviceName, account); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("keyring delete failed: %w", err)
	}
	return nil
}

// Exists checks if a credential exists for an account.
func Exists(account string) bool {
	_, err := Get(account)
	return err == nil
}
