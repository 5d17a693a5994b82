package kvstore

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/4thel00z/memos/internal/crypt"
)

// Codec turns values into bytes before encryption.
type Codec[T any] interface {
	Marshal(v T) ([]byte, error)
	Unmarshal(data []byte) (T, error)
}

type jsonCodec[T any] struct{}

func (jsonCodec[T]) Marshal(v T) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec[T]) Unmarshal(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

// Encrypted stores values of type T encrypted at rest under its StoreID's
// namespace. Concurrent Sets of one key are not ordered: the substrate keeps
// whichever write lands last.
type Encrypted[T any] struct {
	substrate Substrate
	id        StoreID
	cipher    *crypt.Cipher
	codec     Codec[T]
	notFound  error
}

type Option[T any] func(*Encrypted[T])

// WithNotFound makes Get return err for missing keys. The returned error
// still matches ErrNotFound.
func WithNotFound[T any](err error) Option[T] {
	return func(e *Encrypted[T]) { e.notFound = err }
}

func WithCodec[T any](c Codec[T]) Option[T] {
	return func(e *Encrypted[T]) { e.codec = c }
}

func NewEncrypted[T any](substrate Substrate, id StoreID, cipher *crypt.Cipher, opts ...Option[T]) *Encrypted[T] {
	e := &Encrypted[T]{
		substrate: substrate,
		id:        id,
		cipher:    cipher,
		codec:     jsonCodec[T]{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Encrypted[T]) ID() StoreID { return e.id }

func (e *Encrypted[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T

	raw, ok, err := e.substrate.Get(ctx, e.id.key(key))
	if err != nil {
		return zero, errors.Wrapf(err, "%s: get %q", e.id, key)
	}
	if !ok {
		if e.notFound != nil {
			return zero, errors.Mark(errors.Wrapf(e.notFound, "%s: %q", e.id, key), ErrNotFound)
		}
		return zero, errors.Wrapf(ErrNotFound, "%s: %q", e.id, key)
	}

	plain, err := e.cipher.Decrypt(raw)
	if err != nil {
		return zero, errors.Wrapf(err, "%s: get %q", e.id, key)
	}

	v, err := e.codec.Unmarshal(plain)
	if err != nil {
		return zero, errors.Wrapf(ErrCorrupt, "%s: get %q: %v", e.id, key, err)
	}
	return v, nil
}

func (e *Encrypted[T]) Set(ctx context.Context, key string, value T) error {
	plain, err := e.codec.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "%s: encode %q", e.id, key)
	}
	record, err := e.cipher.Encrypt(plain)
	if err != nil {
		return errors.Wrapf(err, "%s: encrypt %q", e.id, key)
	}
	return errors.Wrapf(e.substrate.Set(ctx, e.id.key(key), record), "%s: set %q", e.id, key)
}

func (e *Encrypted[T]) Remove(ctx context.Context, key string) error {
	return errors.Wrapf(e.substrate.Remove(ctx, e.id.key(key)), "%s: remove %q", e.id, key)
}

// Keys lists the keys of this store without their namespace prefix.
func (e *Encrypted[T]) Keys(ctx context.Context) ([]string, error) {
	raw, err := e.substrate.Keys(ctx, e.id.prefix())
	if err != nil {
		return nil, errors.Wrapf(err, "%s: keys", e.id)
	}
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, strings.TrimPrefix(k, e.id.prefix()))
	}
	return keys, nil
}

// Clear removes every key of this store and nothing else.
func (e *Encrypted[T]) Clear(ctx context.Context) error {
	if r, ok := e.substrate.(prefixRemover); ok {
		return errors.Wrapf(r.RemovePrefix(ctx, e.id.prefix()), "%s: clear", e.id)
	}

	keys, err := e.substrate.Keys(ctx, e.id.prefix())
	if err != nil {
		return errors.Wrapf(err, "%s: clear", e.id)
	}
	for _, k := range keys {
		if err := e.substrate.Remove(ctx, k); err != nil {
			return errors.Wrapf(err, "%s: clear", e.id)
		}
	}
	return nil
}
