package crypt

import (
	"crypto/sha256"
)

type Hasher interface {
	Sum256(data []byte) [32]byte
}

type sha256Hasher struct{}

// SHA256 is the Hasher used for content addressing.
var SHA256 Hasher = sha256Hasher{}

func (sha256Hasher) Sum256(data []byte) [32]byte {
	return sha256.Sum256(data)
}
