// Package crypto seals short strings with AES-256-GCM. Sealed values are
// formatted as "nonceB64:ciphertextB64".
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidKey is returned when the key is not 32 bytes of hex.
	ErrInvalidKey = errors.New("crypto: key must be 64 hex characters")
	// ErrMalformed is returned when a value is not in the sealed format.
	ErrMalformed = errors.New("crypto: malformed ciphertext")
	// ErrEmpty is returned when asked to encrypt an empty string.
	ErrEmpty = errors.New("crypto: empty plaintext")
)

var base64Part = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)

// Cipher encrypts and decrypts with a fixed key.
type Cipher struct {
	aead cipher.AEAD
}

// New parses a hex encoded 256-bit key.
func New(hexKey string) (*Cipher, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil || len(key) != 32 {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// GenerateKey returns a random key in the format New expects.
func GenerateKey() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

// Encrypt seals plaintext with a fresh nonce.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmpty
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("crypto: nonce: %w", err)
	}
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(nonce) + ":" + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt.
func (c *Cipher) Decrypt(value string) (string, error) {
	nonceB64, sealedB64, ok := strings.Cut(value, ":")
	if !ok {
		return "", ErrMalformed
	}
	nonce, err := base64.StdEncoding.DecodeString(nonceB64)
	if err != nil || len(nonce) != c.aead.NonceSize() {
		return "", ErrMalformed
	}
	sealed, err := base64.StdEncoding.DecodeString(sealedB64)
	if err != nil {
		return "", ErrMalformed
	}
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("crypto: open: %w", err)
	}
	return string(plain), nil
}

// IsEncrypted reports whether value looks like a sealed value.
func IsEncrypted(value string) bool {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return false
	}
	return base64Part.MatchString(parts[0]) && base64Part.MatchString(parts[1])
}

// EncryptFields seals every non-empty value. Empty values are copied as is.
func (c *Cipher) EncryptFields(fields map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if v == "" {
			out[k] = v
			continue
		}
		sealed, err := c.Encrypt(v)
		if err != nil {
			return nil, fmt.Errorf("encrypt %s: %w", k, err)
		}
		out[k] = sealed
	}
	return out, nil
}

// DecryptFields opens every sealed value. Values that are not sealed or fail
// to open are kept unchanged.
func (c *Cipher) DecryptFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = c.DecryptOrKeep(v)
	}
	return out
}

// DecryptOrKeep opens value when it is sealed and returns it unchanged otherwise.
func (c *Cipher) DecryptOrKeep(value string) string {
	if c == nil || !IsEncrypted(value) {
		return value
	}
	plain, err := c.Decrypt(value)
	if err != nil {
		return value
	}
	return plain
}
