package internal

import (
	"context"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/4thel00z/memos/internal/objstore"
)

var attachmentLinkPattern = regexp.MustCompile(`attachment://([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})`)

// AttachmentLinks returns the attachment ids referenced by content, in order
// of first appearance.
func AttachmentLinks(content string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, m := range attachmentLinkPattern.FindAllStringSubmatch(content, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			ids = append(ids, m[1])
		}
	}
	return ids
}

type AttachmentService struct {
	repo      *AttachmentRepo
	objects   *objstore.Store
	changelog *ChangelogService
	log       *zap.SugaredLogger
}

func NewAttachmentService(repo *AttachmentRepo, objects *objstore.Store, changelog *ChangelogService, log *zap.SugaredLogger) *AttachmentService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &AttachmentService{repo: repo, objects: objects, changelog: changelog, log: log}
}

// Create stores data in the object store and records the attachment.
func (s *AttachmentService) Create(ctx context.Context, filename string, data []byte) (Attachment, error) {
	obj, err := s.objects.Write(ctx, data)
	if err != nil {
		return Attachment{}, errors.Wrapf(err, "store %s", filename)
	}

	a := Attachment{
		ID:               newID(),
		OriginalFilename: filepath.Base(filename),
		ContentType:      contentType(filename, data),
		SizeBytes:        obj.SizeBytes,
		SHA256:           obj.SHA256[:],
		Filepath:         obj.Filepath,
	}

	err = s.repo.db.InTransaction(ctx, func(ctx context.Context) error {
		created, err := s.repo.Create(ctx, a)
		if err != nil {
			return err
		}
		a = created

		_, err = s.changelog.Create(ctx, ChangelogEntry{
			Revision:   1,
			TargetType: TargetAttachments,
			TargetID:   a.ID,
			Value:      AttachmentCreated{Attachment: a},
		})
		return err
	})
	if err != nil {
		return Attachment{}, err
	}

	s.log.Infow("attachment created", "id", a.ID, "filename", a.OriginalFilename, "size", a.SizeBytes)
	return a, nil
}

func (s *AttachmentService) Get(ctx context.Context, id string) (Attachment, error) {
	return s.repo.Get(ctx, id)
}

// Data returns the attachment and its bytes.
func (s *AttachmentService) Data(ctx context.Context, id string) (Attachment, []byte, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return Attachment{}, nil, err
	}
	data, err := s.objects.Read(ctx, a.Filepath)
	if errors.Is(err, objstore.ErrNotFound) {
		return Attachment{}, nil, errors.Mark(errors.Wrapf(err, "data of attachment %s", id), ErrAttachmentNotFound)
	}
	if err != nil {
		return Attachment{}, nil, errors.Wrapf(err, "data of attachment %s", id)
	}
	return a, data, nil
}

func (s *AttachmentService) ListForMemo(ctx context.Context, memoID string) ([]Attachment, error) {
	return s.repo.ListForMemo(ctx, memoID)
}

// UpdateMemoAttachments links the memo to every attachment its content
// references.
func (s *AttachmentService) UpdateMemoAttachments(ctx context.Context, memoID, content string) error {
	return s.repo.SetMemoLinks(ctx, memoID, AttachmentLinks(content))
}

// ApplyChangelogEntry records an attachment created elsewhere. The bytes
// must already be present in the object store.
func (s *AttachmentService) ApplyChangelogEntry(ctx context.Context, e ChangelogEntry) error {
	created, ok := e.Value.(AttachmentCreated)
	if !ok {
		return errors.Wrapf(ErrUnknownChange, "attachment entry %s: %T", e.ID, e.Value)
	}

	if _, err := s.repo.Get(ctx, e.TargetID); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	a := created.Attachment
	a.ID = e.TargetID
	_, err := s.repo.Create(ctx, a)
	return err
}

func contentType(filename string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return http.DetectContentType(data)
}
