package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"golang.org/x/crypto/chacha20poly1305"
)

// Vault persists session state encrypted at rest. The file layout is
// nonce || ciphertext, sealed with XChaCha20-Poly1305.
type Vault struct {
	path string
	key  []byte
}

// NewVault creates a vault at path with a 32-byte hex key. An empty key
// returns (nil, nil): persistence disabled.
func NewVault(path, hexKey string) (*Vault, error) {
	if hexKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode vault key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("vault key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &Vault{path: path, key: key}, nil
}

// Save encrypts and writes the session map. The write goes through a temp
// file and rename so a crash never leaves a torn vault.
func (v *Vault) Save(sessions map[string]*Session) error {
	plain, err := sonic.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}

	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, plain, nil)

	if err := os.MkdirAll(filepath.Dir(v.path), 0o700); err != nil {
		return fmt.Errorf("create vault directory: %w", err)
	}
	tmp := v.path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return fmt.Errorf("write vault: %w", err)
	}
	return os.Rename(tmp, v.path)
}

// Load decrypts the session map. A missing file yields (nil, nil).
func (v *Vault) Load() (map[string]*Session, error) {
	sealed, err := os.ReadFile(v.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read vault: %w", err)
	}

	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("vault file truncated")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt vault: %w", err)
	}

	var sessions map[string]*Session
	if err := sonic.Unmarshal(plain, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return sessions, nil
}
