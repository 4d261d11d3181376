package utils

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKey_InlineValueWins(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "asset.key")

	got, created, err := LoadKey(EncodeKey(key), path)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, key, got)
	assert.NoFileExists(t, path)
}

func TestLoadKey_AcceptsURLSafeKeys(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	got, _, err := LoadKey(base64.URLEncoding.EncodeToString(key), "")
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestLoadKey_ProvisionsMissingFileOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asset.key")

	first, created, err := LoadKey("", path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, first, KeySize)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// A restart must read the same key back, never regenerate
	second, created, err := LoadKey("", path)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, second)
}

func TestLoadKey_NoSource(t *testing.T) {
	_, _, err := LoadKey("", "")
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestLoadKey_RejectsBadKeys(t *testing.T) {
	_, _, err := LoadKey(base64.StdEncoding.EncodeToString([]byte("sixteen byte key")), "")
	assert.Error(t, err)

	_, _, err = LoadKey("%%%not-base64%%%", "")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "asset.key")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))
	_, _, err = LoadKey("", path)
	assert.Error(t, err)
}

func TestWriteKeyFile_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asset.key")
	key, err := GenerateKey()
	require.NoError(t, err)

	require.NoError(t, WriteKeyFile(path, key))
	assert.Error(t, WriteKeyFile(path, key))

	got, _, err := LoadKey("", path)
	require.NoError(t, err)
	assert.Equal(t, key, got)
}
