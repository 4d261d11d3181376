package utils

import (
	"crypto/cipher"   // AEAD interface
	"crypto/rand"     // Nonce source
	"encoding/base64" // Text encoding of ciphertext
	"fmt"

	"finance_tracker/internal/domain"

	"golang.org/x/crypto/chacha20poly1305" // XChaCha20-Poly1305 AEAD
)

// KeySize is the length in bytes of an asset encryption key
const KeySize = chacha20poly1305.KeySize

// AssetCipher encrypts and decrypts asset names with one symmetric key.
// Ciphertext is base64url(nonce || sealed), so it fits a text column.
type AssetCipher struct {
	aead cipher.AEAD
}

// NewAssetCipher builds a cipher from a KeySize-byte key
func NewAssetCipher(key []byte) (*AssetCipher, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("asset cipher: %w", err)
	}
	return &AssetCipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce
func (c *AssetCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("asset cipher: nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil) // Appends to nonce
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt under the same key.
// Any failure is reported as domain.ErrDecryption.
func (c *AssetCipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: malformed ciphertext", domain.ErrDecryption)
	}
	if len(raw) < c.aead.NonceSize()+c.aead.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", domain.ErrDecryption)
	}
	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", domain.ErrDecryption)
	}
	return string(plain), nil
}
