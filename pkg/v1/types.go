package v1

import "time"

// Memo is a stored memo.
type Memo struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	IsArchived bool      `json:"is_archived"`
	IsDeleted  bool      `json:"is_deleted"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListOptions filters List. The zero value lists every memo that is not
// deleted, newest first.
type ListOptions struct {
	Search       string
	HideArchived bool
	OnlyArchived bool
	Deleted      bool
	Limit        int
}
