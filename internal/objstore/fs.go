package objstore

import (
	"context"
	"os"
	"path"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/4thel00z/memos/internal/crypt"
)

// FS is the raw byte storage an object store writes to.
type FS interface {
	Read(ctx context.Context, filepath string) ([]byte, error)
	Write(ctx context.Context, filepath string, data []byte) (int, error)
	Remove(ctx context.Context, filepath string) error
	MkdirAll(ctx context.Context, dir string) error
}

// dirPruner is implemented by filesystems that can list directories. Store
// uses it to drop empty segment directories after a remove.
type dirPruner interface {
	RemoveEmptyDir(ctx context.Context, dir string) (bool, error)
}

// BillyFS stores files on a billy filesystem, osfs in production and memfs
// in tests.
type BillyFS struct {
	fs billy.Filesystem
}

func NewBillyFS(fs billy.Filesystem) *BillyFS {
	return &BillyFS{fs: fs}
}

func (b *BillyFS) Read(ctx context.Context, filepath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := util.ReadFile(b.fs, filepath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrapf(ErrNotFound, "read %s", filepath)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", filepath)
	}
	return data, nil
}

// Write stores data through a temp file renamed into place, falling back to a
// direct write when the rename is refused.
func (b *BillyFS) Write(ctx context.Context, filepath string, data []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	tmp, err := b.fs.TempFile(path.Dir(filepath), ".tmp-")
	if err != nil {
		return 0, errors.Wrapf(err, "create temp file for %s", filepath)
	}
	tmpName := tmp.Name()

	n, err := tmp.Write(data)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = b.fs.Remove(tmpName)
		return 0, errors.Wrapf(err, "write %s", filepath)
	}

	if err := b.fs.Rename(tmpName, filepath); err != nil {
		_ = b.fs.Remove(tmpName)
		if err := b.writeDirect(filepath, data); err != nil {
			return 0, errors.Wrapf(err, "write %s", filepath)
		}
	}
	return n, nil
}

func (b *BillyFS) writeDirect(filepath string, data []byte) error {
	f, err := b.fs.OpenFile(filepath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	return errors.CombineErrors(err, f.Close())
}

func (b *BillyFS) Remove(ctx context.Context, filepath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.fs.Remove(filepath)
	if errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(ErrNotFound, "remove %s", filepath)
	}
	if err != nil {
		return errors.Wrapf(err, "remove %s", filepath)
	}
	return nil
}

func (b *BillyFS) MkdirAll(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.fs.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create directory %s", dir)
	}
	return nil
}

func (b *BillyFS) RemoveEmptyDir(ctx context.Context, dir string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	entries, err := b.fs.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "read directory %s", dir)
	}
	if len(entries) > 0 {
		return false, nil
	}
	if err := b.fs.Remove(dir); err != nil {
		return false, errors.Wrapf(err, "remove directory %s", dir)
	}
	return true, nil
}

// EncryptedFS encrypts file contents before handing them to the wrapped FS.
type EncryptedFS struct {
	wrapped FS
	cipher  *crypt.Cipher
}

func NewEncryptedFS(wrapped FS, cipher *crypt.Cipher) *EncryptedFS {
	return &EncryptedFS{wrapped: wrapped, cipher: cipher}
}

func (e *EncryptedFS) Read(ctx context.Context, filepath string) ([]byte, error) {
	raw, err := e.wrapped.Read(ctx, filepath)
	if err != nil {
		return nil, err
	}
	data, err := e.cipher.Decrypt(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", filepath)
	}
	return data, nil
}

func (e *EncryptedFS) Write(ctx context.Context, filepath string, data []byte) (int, error) {
	encrypted, err := e.cipher.Encrypt(data)
	if err != nil {
		return 0, errors.Wrapf(err, "encrypt %s", filepath)
	}
	if _, err := e.wrapped.Write(ctx, filepath, encrypted); err != nil {
		return 0, err
	}
	return len(data), nil
}

func (e *EncryptedFS) Remove(ctx context.Context, filepath string) error {
	return e.wrapped.Remove(ctx, filepath)
}

func (e *EncryptedFS) MkdirAll(ctx context.Context, dir string) error {
	return e.wrapped.MkdirAll(ctx, dir)
}

func (e *EncryptedFS) RemoveEmptyDir(ctx context.Context, dir string) (bool, error) {
	if p, ok := e.wrapped.(dirPruner); ok {
		return p.RemoveEmptyDir(ctx, dir)
	}
	return false, nil
}
