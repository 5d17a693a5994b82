// Package crypt provides password-based encryption of stored values and the
// content hash used to address attachments.
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/pbkdf2"
)

var (
	ErrDecryption      = errors.New("crypt: decryption failed")
	ErrEmptyPassword   = errors.New("crypt: empty password")
	ErrRandomExhausted = errors.New("crypt: could not read random bytes")
)

const (
	SaltSize = 32
	IVSize   = 12
	KeySize  = 32

	// DefaultIterations is the PBKDF2 round count for every stored record.
	DefaultIterations = 250_000
)

// Cipher encrypts and decrypts records laid out as salt | iv | ciphertext.
// A fresh salt and IV are drawn for every Encrypt call and the AES-256-GCM
// key is derived from the password and that salt.
type Cipher struct {
	password   []byte
	iterations int
}

type Option func(*Cipher)

// WithIterations overrides the PBKDF2 round count. Records written with one
// count cannot be read with another.
func WithIterations(n int) Option {
	return func(c *Cipher) {
		if n > 0 {
			c.iterations = n
		}
	}
}

func NewCipher(password []byte, opts ...Option) (*Cipher, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	c := &Cipher{
		password:   append([]byte(nil), password...),
		iterations: DefaultIterations,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DeriveKey runs PBKDF2-HMAC-SHA256 over base and salt.
func DeriveKey(base, salt []byte, iterations int) []byte {
	return pbkdf2.Key(base, salt, iterations, KeySize, sha256.New)
}

func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	out := make([]byte, SaltSize+IVSize, SaltSize+IVSize+len(plaintext)+16)
	if _, err := rand.Read(out); err != nil {
		return nil, errors.Wrap(ErrRandomExhausted, err.Error())
	}
	salt, iv := out[:SaltSize], out[SaltSize:SaltSize+IVSize]

	aead, err := c.aead(salt)
	if err != nil {
		return nil, err
	}
	return aead.Seal(out, iv, plaintext, nil), nil
}

func (c *Cipher) Decrypt(data []byte) ([]byte, error) {
	if len(data) < SaltSize+IVSize {
		return nil, errors.Wrapf(ErrDecryption, "record is %d bytes", len(data))
	}
	salt := data[:SaltSize]
	iv := data[SaltSize : SaltSize+IVSize]
	ciphertext := data[SaltSize+IVSize:]

	aead, err := c.aead(salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, errors.Wrap(ErrDecryption, err.Error())
	}
	return plaintext, nil
}

func (c *Cipher) aead(salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(DeriveKey(c.password, salt, c.iterations))
	if err != nil {
		return nil, errors.Wrap(err, "create block cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "create gcm")
	}
	return aead, nil
}
