package internal

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/4thel00z/memos/internal/crypt"
	"github.com/4thel00z/memos/internal/kvstore"
)

var (
	settingsStoreID = kvstore.MustStoreID("settings")
	authStoreID     = kvstore.MustStoreID("auth")
)

// Settings holds user preferences encrypted at rest.
type Settings struct {
	store *kvstore.Encrypted[string]
}

func NewSettings(substrate kvstore.Substrate, cipher *crypt.Cipher) *Settings {
	return &Settings{store: kvstore.NewEncrypted[string](substrate, settingsStoreID, cipher)}
}

func (s *Settings) Get(ctx context.Context, key string) (string, error) {
	return s.store.Get(ctx, key)
}

func (s *Settings) Set(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, key, value)
}

func (s *Settings) Remove(ctx context.Context, key string) error {
	return s.store.Remove(ctx, key)
}

// All returns every stored setting.
func (s *Settings) All(ctx context.Context) (map[string]string, error) {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		return nil, err
	}
	all := make(map[string]string, len(keys))
	for _, k := range keys {
		v, err := s.store.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		all[k] = v
	}
	return all, nil
}

type AuthToken struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (t AuthToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// AuthTokens keeps one token per server, encrypted at rest.
type AuthTokens struct {
	store *kvstore.Encrypted[AuthToken]
}

func NewAuthTokens(substrate kvstore.Substrate, cipher *crypt.Cipher) *AuthTokens {
	return &AuthTokens{
		store: kvstore.NewEncrypted[AuthToken](substrate, authStoreID, cipher,
			kvstore.WithNotFound[AuthToken](ErrNoAuthToken)),
	}
}

// Get returns ErrNoAuthToken for servers without a token or whose token
// has expired.
func (a *AuthTokens) Get(ctx context.Context, server string) (AuthToken, error) {
	token, err := a.store.Get(ctx, server)
	if err != nil {
		return AuthToken{}, err
	}
	if token.Expired(time.Now()) {
		return AuthToken{}, errors.Wrapf(ErrNoAuthToken, "token for %s expired", server)
	}
	return token, nil
}

func (a *AuthTokens) Set(ctx context.Context, server string, token AuthToken) error {
	return a.store.Set(ctx, server, token)
}

func (a *AuthTokens) Remove(ctx context.Context, server string) error {
	return a.store.Remove(ctx, server)
}

// Clear removes every stored token.
func (a *AuthTokens) Clear(ctx context.Context) error {
	return a.store.Clear(ctx)
}
