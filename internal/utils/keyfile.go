package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// ErrNoKey is returned when neither a key value nor a key file is configured
var ErrNoKey = errors.New("no encryption key configured")

// GenerateKey returns a fresh random key
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// EncodeKey renders a key the way key files and ENCRYPTION_KEY store it
func EncodeKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}

// DecodeKey accepts standard or URL-safe base64 (padded or not) of exactly KeySize bytes
func DecodeKey(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		key, err := enc.DecodeString(encoded)
		if err != nil {
			continue
		}
		if len(key) != KeySize {
			return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
		}
		return key, nil
	}
	return nil, errors.New("encryption key is not valid base64")
}

// WriteKeyFile creates path with mode 0600 and writes key into it.
// It fails if the file already exists so a provisioned key is never replaced.
func WriteKeyFile(path string, key []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(EncodeKey(key) + "\n"); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadKey resolves the asset key. An inline value wins over the file.
// A key file that does not exist yet is provisioned once; created reports that.
func LoadKey(encoded, path string) (key []byte, created bool, err error) {
	if encoded != "" {
		key, err = DecodeKey(encoded)
		return key, false, err
	}
	if path == "" {
		return nil, false, ErrNoKey
	}
	data, err := os.ReadFile(path)
	if err == nil {
		key, err = DecodeKey(string(data))
		if err != nil {
			return nil, false, fmt.Errorf("key file %s: %w", path, err)
		}
		return key, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}
	if key, err = GenerateKey(); err != nil {
		return nil, false, err
	}
	if err := WriteKeyFile(path, key); err != nil {
		// Another process may have provisioned it first
		if errors.Is(err, fs.ErrExist) {
			return LoadKey("", path)
		}
		return nil, false, fmt.Errorf("write key file %s: %w", path, err)
	}
	return key, true, nil
}
