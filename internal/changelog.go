package internal

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/4thel00z/memos/internal/delta"
)

type TargetType string

const (
	TargetMemos       TargetType = "memos"
	TargetAttachments TargetType = "attachments"
)

// ChangelogEntry records one change to a memo or attachment. Entries created
// locally are already applied; entries received from elsewhere are applied
// later by the SyncApplier.
type ChangelogEntry struct {
	ID         string
	Source     string
	Revision   int
	Timestamp  time.Time
	TargetType TargetType
	TargetID   string
	Value      ChangelogValue
	IsSynced   bool
	SyncedAt   *time.Time
	IsApplied  bool
	AppliedAt  *time.Time

	seq int64
}

// ChangelogValue is one of MemoCreated, MemoContentChanged, MemoArchived,
// MemoDeleted or AttachmentCreated.
type ChangelogValue interface {
	changelogValue()
}

type MemoCreated struct{ Memo Memo }

type MemoContentChanged struct{ Changes delta.ChangeSet }

type MemoArchived struct{ IsArchived bool }

type MemoDeleted struct{ IsDeleted bool }

type AttachmentCreated struct{ Attachment Attachment }

func (MemoCreated) changelogValue()        {}
func (MemoContentChanged) changelogValue() {}
func (MemoArchived) changelogValue()       {}
func (MemoDeleted) changelogValue()        {}
func (AttachmentCreated) changelogValue()  {}

// deltaEntry converts memo values that carry content into merge entries.
func deltaEntry(v ChangelogValue) (delta.Entry, bool) {
	switch v := v.(type) {
	case MemoCreated:
		return delta.Created{Content: v.Memo.Content}, true
	case MemoContentChanged:
		return delta.ContentChange{Changes: v.Changes}, true
	default:
		return nil, false
	}
}

func encodeValue(v ChangelogValue) ([]byte, error) {
	var wire any
	switch v := v.(type) {
	case MemoCreated:
		wire = map[string]Memo{"created": v.Memo}
	case AttachmentCreated:
		wire = map[string]Attachment{"created": v.Attachment}
	case MemoContentChanged:
		wire = map[string]delta.ChangeSet{"content": v.Changes}
	case MemoArchived:
		wire = map[string]bool{"isArchived": v.IsArchived}
	case MemoDeleted:
		wire = map[string]bool{"isDeleted": v.IsDeleted}
	default:
		return nil, errors.Wrapf(ErrUnknownChange, "%T", v)
	}
	return json.Marshal(wire)
}

func decodeValue(target TargetType, data []byte) (ChangelogValue, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errors.Wrap(err, "decode changelog value")
	}
	if len(fields) != 1 {
		return nil, errors.Wrapf(ErrUnknownChange, "%s", data)
	}

	for name, raw := range fields {
		switch {
		case name == "created" && target == TargetMemos:
			var m Memo
			err := json.Unmarshal(raw, &m)
			return MemoCreated{Memo: m}, errors.Wrap(err, "decode created memo")
		case name == "created" && target == TargetAttachments:
			var a Attachment
			err := json.Unmarshal(raw, &a)
			return AttachmentCreated{Attachment: a}, errors.Wrap(err, "decode created attachment")
		case name == "content" && target == TargetMemos:
			var cs delta.ChangeSet
			err := json.Unmarshal(raw, &cs)
			return MemoContentChanged{Changes: cs}, errors.Wrap(err, "decode content change")
		case name == "isArchived" && target == TargetMemos:
			var b bool
			err := json.Unmarshal(raw, &b)
			return MemoArchived{IsArchived: b}, errors.Wrap(err, "decode isArchived")
		case name == "isDeleted" && target == TargetMemos:
			var b bool
			err := json.Unmarshal(raw, &b)
			return MemoDeleted{IsDeleted: b}, errors.Wrap(err, "decode isDeleted")
		}
	}
	return nil, errors.Wrapf(ErrUnknownChange, "%s: %s", target, data)
}

type changelogEntryJSON struct {
	ID         string          `json:"id"`
	Source     string          `json:"source"`
	Revision   int             `json:"revision"`
	Timestamp  time.Time       `json:"timestamp"`
	TargetType TargetType      `json:"targetType"`
	TargetID   string          `json:"targetID"`
	Value      json.RawMessage `json:"value"`
	IsSynced   bool            `json:"isSynced"`
	SyncedAt   *time.Time      `json:"syncedAt,omitempty"`
	IsApplied  bool            `json:"isApplied"`
	AppliedAt  *time.Time      `json:"appliedAt,omitempty"`
}

func (e ChangelogEntry) MarshalJSON() ([]byte, error) {
	value, err := encodeValue(e.Value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(changelogEntryJSON{
		ID:         e.ID,
		Source:     e.Source,
		Revision:   e.Revision,
		Timestamp:  e.Timestamp,
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		Value:      value,
		IsSynced:   e.IsSynced,
		SyncedAt:   e.SyncedAt,
		IsApplied:  e.IsApplied,
		AppliedAt:  e.AppliedAt,
	})
}

func (e *ChangelogEntry) UnmarshalJSON(data []byte) error {
	var raw changelogEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	value, err := decodeValue(raw.TargetType, raw.Value)
	if err != nil {
		return err
	}
	*e = ChangelogEntry{
		ID:         raw.ID,
		Source:     raw.Source,
		Revision:   raw.Revision,
		Timestamp:  raw.Timestamp,
		TargetType: raw.TargetType,
		TargetID:   raw.TargetID,
		Value:      value,
		IsSynced:   raw.IsSynced,
		SyncedAt:   raw.SyncedAt,
		IsApplied:  raw.IsApplied,
		AppliedAt:  raw.AppliedAt,
	}
	return nil
}
