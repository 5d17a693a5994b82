package crypt

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCipher(t *testing.T, password string) *Cipher {
	t.Helper()
	c, err := NewCipher([]byte(password), WithIterations(1000))
	require.NoError(t, err)
	return c
}

func TestEncryptDecrypt(t *testing.T) {
	c := newTestCipher(t, "correct horse")

	record, err := c.Encrypt([]byte("attack at dawn"))
	require.NoError(t, err)
	assert.Len(t, record, SaltSize+IVSize+len("attack at dawn")+16)

	plain, err := c.Decrypt(record)
	require.NoError(t, err)
	assert.Equal(t, "attack at dawn", string(plain))
}

func TestEncryptUsesFreshSaltAndIV(t *testing.T) {
	c := newTestCipher(t, "pw")

	a, err := c.Encrypt([]byte("same"))
	require.NoError(t, err)
	b, err := c.Encrypt([]byte("same"))
	require.NoError(t, err)

	assert.NotEqual(t, a[:SaltSize], b[:SaltSize])
	assert.NotEqual(t, a[SaltSize:SaltSize+IVSize], b[SaltSize:SaltSize+IVSize])
	assert.NotEqual(t, a, b)
}

func TestDecryptFailures(t *testing.T) {
	c := newTestCipher(t, "pw")
	record, err := c.Encrypt([]byte("secret"))
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := newTestCipher(t, "other").Decrypt(record)
		assert.True(t, errors.Is(err, ErrDecryption), "got %v", err)
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		tampered := append([]byte(nil), record...)
		tampered[len(tampered)-1] ^= 0xff
		_, err := c.Decrypt(tampered)
		assert.True(t, errors.Is(err, ErrDecryption), "got %v", err)
	})

	t.Run("tampered salt", func(t *testing.T) {
		tampered := append([]byte(nil), record...)
		tampered[0] ^= 0x01
		_, err := c.Decrypt(tampered)
		assert.True(t, errors.Is(err, ErrDecryption), "got %v", err)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := c.Decrypt(record[:SaltSize+IVSize-1])
		assert.True(t, errors.Is(err, ErrDecryption), "got %v", err)
	})
}

func TestIterationsMustMatch(t *testing.T) {
	writer, err := NewCipher([]byte("pw"), WithIterations(1000))
	require.NoError(t, err)
	reader, err := NewCipher([]byte("pw"), WithIterations(1001))
	require.NoError(t, err)

	record, err := writer.Encrypt([]byte("x"))
	require.NoError(t, err)
	_, err = reader.Decrypt(record)
	assert.True(t, errors.Is(err, ErrDecryption))
}

func TestNewCipherRejectsEmptyPassword(t *testing.T) {
	_, err := NewCipher(nil)
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestDefaultIterations(t *testing.T) {
	c, err := NewCipher([]byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, 250000, c.iterations)
}

func TestDeriveKey(t *testing.T) {
	// RFC 7914 section 11 PBKDF2-HMAC-SHA256 vector, first 32 bytes.
	key := DeriveKey([]byte("passwd"), []byte("salt"), 1)
	assert.Equal(t, "55ac046e56e3089fec1691c22544b605f94185216dde0465e68b9d57c20dacbc", hex.EncodeToString(key))
}

func TestSHA256Hasher(t *testing.T) {
	data := []byte("content")
	assert.Equal(t, sha256.Sum256(data), SHA256.Sum256(data))
}
