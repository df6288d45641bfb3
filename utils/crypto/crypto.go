package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
)

const (
	// KeyLength is the AES-256 key size in bytes
	KeyLength = 32
)

var (
	ErrInvalidKeyLength = errors.New("invalid key length")
	ErrEncryptionFailed = errors.New("encryption failed")
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrMissingKey       = errors.New("ENCRYPTION_KEY is not set")
)

// Cipher encrypts credential secrets at rest using AES-256-GCM. Ciphertext is
// stored as base64(nonce || sealed) so it survives text columns. A Cipher is
// read-only after construction and safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// GenerateKey returns a new random base64-encoded AES-256 key
func GenerateKey() (string, error) {
	key := make([]byte, KeyLength)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.URLEncoding.EncodeToString(key), nil
}

// NewCipher builds a cipher from a base64-encoded 32-byte key and verifies it
// with an encrypt/decrypt round-trip before accepting it.
func NewCipher(encodedKey string) (*Cipher, error) {
	key, err := base64.URLEncoding.DecodeString(encodedKey)
	if err != nil {
		// Accept std encoding too; Fernet-style keys from other tooling use it
		key, err = base64.StdEncoding.DecodeString(encodedKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decode encryption key: %w", err)
		}
	}
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	c := &Cipher{aead: aead}
	if err := c.selfTest(); err != nil {
		return nil, err
	}
	return c, nil
}

// Initialize builds the process-wide cipher from the environment-provided key.
// A missing key generates a fresh one and logs it for the operator to persist;
// secrets encrypted under a generated key are unreadable after a restart
// unless the operator saves the key. A broken key is replaced by a fallback
// rather than aborting startup. Set requireKey to fail fast instead.
func Initialize(encodedKey string, requireKey bool) (*Cipher, error) {
	if encodedKey == "" {
		if requireKey {
			return nil, ErrMissingKey
		}
		generated, err := GenerateKey()
		if err != nil {
			return nil, err
		}
		log.Println("WARNING: No ENCRYPTION_KEY found in environment. Generated new key.")
		log.Println("Add this to your deployment platform's environment variables:")
		log.Printf("ENCRYPTION_KEY=%s", generated)
		return NewCipher(generated)
	}

	c, err := NewCipher(encodedKey)
	if err != nil {
		if requireKey {
			return nil, fmt.Errorf("unusable ENCRYPTION_KEY: %w", err)
		}
		log.Printf("Failed to initialize encryption cipher: %v", err)
		fallback, genErr := GenerateKey()
		if genErr != nil {
			return nil, genErr
		}
		log.Println("Using fallback encryption key. Set this in environment:")
		log.Printf("ENCRYPTION_KEY=%s", fallback)
		return NewCipher(fallback)
	}
	return c, nil
}

// selfTest round-trips a known value to prove the key is usable
func (c *Cipher) selfTest() error {
	const probe = "test_api_key_12345"
	sealed, err := c.Encrypt(probe)
	if err != nil {
		return fmt.Errorf("encryption self-test failed: %w", err)
	}
	if c.Decrypt(sealed) != probe {
		return errors.New("encryption self-test failed: round-trip mismatch")
	}
	return nil
}

// Encrypt seals a plaintext string for storage. Empty input maps to empty
// output so "not configured" survives a write untouched.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a stored ciphertext. Empty input maps to empty output. Any
// failure (bad key, corrupted data, wrong key epoch) returns the empty string
// sentinel - callers must treat it as "unusable credential", never crash.
// Plaintext and ciphertext are never logged.
func (c *Cipher) Decrypt(ciphertext string) string {
	if ciphertext == "" {
		return ""
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		log.Printf("Decryption failed: invalid encoding")
		return ""
	}
	if len(raw) < c.aead.NonceSize() {
		log.Printf("Decryption failed: truncated payload")
		return ""
	}

	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		log.Printf("Decryption failed: %v", ErrDecryptionFailed)
		return ""
	}
	return string(plaintext)
}
