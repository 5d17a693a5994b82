package v1

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	scope    string
	password string
	idle     time.Duration
	log      *zap.SugaredLogger
}

// WithScope forces a specific scope (global or project).
func WithScope(scope string) Option {
	return func(c *clientConfig) {
		c.scope = scope
	}
}

// WithPassword sets the password that encrypts settings and, when enabled in
// the scope's config, attachments. It overrides MEMO_PASSWORD.
func WithPassword(password string) Option {
	return func(c *clientConfig) {
		c.password = password
	}
}

// WithIdleTimeout keeps the store open for d after the last call returns.
// Zero closes it after every call.
func WithIdleTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.idle = d
	}
}

// WithLogger sets the logger of the client's stores.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *clientConfig) {
		c.log = log
	}
}
