package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MasterKeyEnv is consulted when no master key file is configured.
const MasterKeyEnv = "AUTH_MASTER_KEY"

var ErrCiphertextTooShort = errors.New("cryptox: ciphertext too short")

// KeyCipher seals signing key material at rest with AES-256-GCM.
// Sealed output is [nonce][ciphertext][tag].
type KeyCipher struct {
	aead      cipher.AEAD
	ephemeral bool
}

// NewKeyCipher derives an AES-256 key from arbitrary material via SHA-256.
func NewKeyCipher(material []byte) (*KeyCipher, error) {
	if len(material) == 0 {
		return nil, errors.New("cryptox: master key material is empty")
	}
	sum := sha256.Sum256(material)

	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, fmt.Errorf("cryptox: create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create gcm: %w", err)
	}
	return &KeyCipher{aead: aead}, nil
}

// LoadKeyCipher resolves the master key from, in order: the file at path,
// the AUTH_MASTER_KEY environment variable, or a random ephemeral key. Keys
// sealed under an ephemeral cipher cannot be opened after a restart; callers
// should check Ephemeral and warn.
func LoadKeyCipher(path string) (*KeyCipher, error) {
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("cryptox: read master key file: %w", err)
		}
		data = []byte(strings.TrimSpace(string(data)))
		return NewKeyCipher(data)
	}

	if env := os.Getenv(MasterKeyEnv); env != "" {
		return NewKeyCipher([]byte(env))
	}

	material := make([]byte, 32)
	if _, err := rand.Read(material); err != nil {
		return nil, fmt.Errorf("cryptox: generate ephemeral master key: %w", err)
	}
	c, err := NewKeyCipher(material)
	if err != nil {
		return nil, err
	}
	c.ephemeral = true
	return c, nil
}

// Ephemeral reports whether the master key was generated for this process only.
func (c *KeyCipher) Ephemeral() bool { return c.ephemeral }

func (c *KeyCipher) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("cryptox: generate nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (c *KeyCipher) Open(sealed []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	if len(sealed) < n+c.aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	plaintext, err := c.aead.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("cryptox: decryption failed: %w", err)
	}
	return plaintext, nil
}
