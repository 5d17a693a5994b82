// Package objstore stores attachment bytes under paths derived from their
// SHA-256 digest.
package objstore

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/4thel00z/memos/internal/crypt"
)

var ErrNotFound = errors.New("object not found")

// Object describes a stored blob. Filepath is fully determined by SHA256.
type Object struct {
	SHA256    [32]byte
	SizeBytes int64
	Filepath  string
}

type Store struct {
	fs     FS
	hasher crypt.Hasher
	log    *zap.SugaredLogger
}

type Option func(*Store)

func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Store) { s.log = log }
}

func WithHasher(h crypt.Hasher) Option {
	return func(s *Store) { s.hasher = h }
}

func New(fs FS, opts ...Option) *Store {
	s := &Store{
		fs:     fs,
		hasher: crypt.SHA256,
		log:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Write stores data and returns where it lives. Writing identical bytes again
// yields the same Object.
func (s *Store) Write(ctx context.Context, data []byte) (Object, error) {
	sum := s.hasher.Sum256(data)
	obj := Object{
		SHA256:    sum,
		SizeBytes: int64(len(data)),
		Filepath:  FilepathFor(sum),
	}

	if err := s.fs.MkdirAll(ctx, Dirname(obj.Filepath)); err != nil {
		return Object{}, err
	}
	if _, err := s.fs.Write(ctx, obj.Filepath, data); err != nil {
		return Object{}, err
	}

	s.log.Debugw("object written", "sha256", hex.EncodeToString(sum[:]), "size_bytes", obj.SizeBytes)
	return obj, nil
}

func (s *Store) Read(ctx context.Context, filepath string) ([]byte, error) {
	return s.fs.Read(ctx, filepath)
}

// Remove deletes the object and any segment directories left empty. A
// missing object is not an error.
func (s *Store) Remove(ctx context.Context, filepath string) error {
	err := s.fs.Remove(ctx, filepath)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	if pruner, ok := s.fs.(dirPruner); ok {
		for dir := Dirname(filepath); dir != "." && dir != "/"; dir = Dirname(dir) {
			removed, err := pruner.RemoveEmptyDir(ctx, dir)
			if err != nil {
				return err
			}
			if !removed {
				break
			}
		}
	}

	s.log.Debugw("object removed", "filepath", filepath)
	return nil
}

// FilepathFor renders each digest byte as a "/xx" lowercase hex segment.
func FilepathFor(sum [32]byte) string {
	var b strings.Builder
	b.Grow(len(sum) * 3)
	for _, c := range sum {
		b.WriteByte('/')
		b.WriteString(hex.EncodeToString([]byte{c}))
	}
	return b.String()
}

// Dirname returns the part of filepath before the last "/", or "." when
// there is none.
func Dirname(filepath string) string {
	i := strings.LastIndex(filepath, "/")
	if i <= 0 {
		return "."
	}
	return filepath[:i]
}
