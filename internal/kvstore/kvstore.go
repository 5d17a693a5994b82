// Package kvstore keeps encrypted values in namespaced key/value stores that
// may share one underlying substrate.
package kvstore

import (
	"context"
	"regexp"

	"github.com/cockroachdb/errors"
)

var (
	ErrNotFound       = errors.New("kvstore: key not found")
	ErrCorrupt        = errors.New("kvstore: stored value could not be decoded")
	ErrInvalidStoreID = errors.New("kvstore: invalid store id")
	ErrKeyTooLong     = errors.New("kvstore: key too long")
)

// Substrate is raw byte storage keyed by strings.
type Substrate interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// prefixRemover is implemented by substrates that can drop a whole
// namespace in one operation.
type prefixRemover interface {
	RemovePrefix(ctx context.Context, prefix string) error
}

var storeIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// StoreID names a namespace on a substrate. IDs never contain "/", so one
// store's prefix can never be a prefix of another's.
type StoreID string

func NewStoreID(s string) (StoreID, error) {
	if !storeIDPattern.MatchString(s) {
		return "", errors.Wrapf(ErrInvalidStoreID, "%q", s)
	}
	return StoreID(s), nil
}

// MustStoreID is NewStoreID for package-level constants.
func MustStoreID(s string) StoreID {
	id, err := NewStoreID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id StoreID) prefix() string { return string(id) + "/" }

func (id StoreID) key(k string) string { return id.prefix() + k }
