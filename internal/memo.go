package internal

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrMemoNotFound       = errors.Mark(errors.New("memo not found"), ErrNotFound)
	ErrAttachmentNotFound = errors.Mark(errors.New("attachment not found"), ErrNotFound)
	ErrInvalidID          = errors.New("invalid id")
	ErrUnknownChange      = errors.New("unknown changelog value")
	ErrNoPassword         = errors.New("no password configured, set MEMO_PASSWORD")
	ErrNoAuthToken        = errors.New("no auth token stored")
)

// timeFormat is fixed width so stored timestamps order lexicographically.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse time %q", s)
	}
	return t, nil
}

func newID() string {
	return uuid.NewString()
}

// ValidateID checks that id is a canonical UUID string.
func ValidateID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != id {
		return errors.Wrapf(ErrInvalidID, "%q", id)
	}
	return nil
}

type Memo struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	IsArchived bool      `json:"isArchived"`
	IsDeleted  bool      `json:"isDeleted"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Attachment struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"originalFilename"`
	ContentType      string    `json:"contentType"`
	SizeBytes        int64     `json:"sizeBytes"`
	SHA256           []byte    `json:"sha256"`
	Filepath         string    `json:"filepath"`
	CreatedAt        time.Time `json:"createdAt"`
}

type MemoFilter struct {
	Search     string
	IsArchived *bool
	IsDeleted  bool
}

// Cursor marks a position in a listing; it is only meaningful when passed
// back to the listing that produced it.
type Cursor struct {
	at  string
	seq int64
}

type Pagination struct {
	PageSize int
	After    *Cursor
}

const defaultPageSize = 50

func (p Pagination) size() int {
	if p.PageSize <= 0 {
		return defaultPageSize
	}
	return p.PageSize
}

type Page[T any] struct {
	Items []T
	Next  *Cursor
}
