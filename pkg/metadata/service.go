package metadata

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inkwellnotes/inkwell/pkg/errcodes"
	"github.com/inkwellnotes/inkwell/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100
)

// Service owns the file records. Records are annotations keyed by
// (owner, path); the filesystem stays authoritative for whether a file exists.
type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// UpsertOptions describes the derived state of a file that was just written.
type UpsertOptions struct {
	OwnerID  string
	FilePath string
	Title    string
	Preview  *string
}

// Upsert inserts a record for (owner, path) or refreshes the title, preview
// and updated_at of the existing one. Privacy and created_at are preserved.
func (s *Service) Upsert(ctx context.Context, opts UpsertOptions) (*models.File, error) {
	now := time.Now().UTC()
	file := &models.File{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		UserID:    opts.OwnerID,
		FilePath:  opts.FilePath,
		Title:     opts.Title,
		Preview:   opts.Preview,
	}

	_, err := s.db.NewInsert().
		Model(file).
		On("CONFLICT (user_id, file_path) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("preview = EXCLUDED.preview").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return s.retrieveByPath(ctx, opts.OwnerID, opts.FilePath)
}

// Touch refreshes an existing record the same way Upsert does but never
// creates one. It returns nil when the file has no record.
func (s *Service) Touch(ctx context.Context, opts UpsertOptions) (*models.File, error) {
	res, err := s.db.NewUpdate().
		Model((*models.File)(nil)).
		Set("title = ?", opts.Title).
		Set("preview = ?", opts.Preview).
		Set("updated_at = ?", time.Now().UTC()).
		Where("user_id = ?", opts.OwnerID).
		Where("file_path = ?", opts.FilePath).
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.retrieveByPath(ctx, opts.OwnerID, opts.FilePath)
}

// SetPrivacy flips the public flag of a record. The record must belong to
// owner; a record id alone doesn't authorize the change.
func (s *Service) SetPrivacy(ctx context.Context, id, ownerID string, isPublic bool) (*models.File, error) {
	res, err := s.db.NewUpdate().
		Model((*models.File)(nil)).
		Set("is_public = ?", isPublic).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("user_id = ?", ownerID).
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, errcodes.NotFound("File")
	}

	file := &models.File{}
	err = s.db.NewSelect().
		Model(file).
		Relation("User").
		Where("f.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return file, nil
}

// Remove deletes the record for (owner, path) if there is one.
func (s *Service) Remove(ctx context.Context, ownerID, filePath string) error {
	_, err := s.db.NewDelete().
		Model((*models.File)(nil)).
		Where("user_id = ?", ownerID).
		Where("file_path = ?", filePath).
		Exec(ctx)
	return errors.WithStack(err)
}

// RemoveUnder deletes the records of every file at or beneath folder and
// returns how many were removed.
func (s *Service) RemoveUnder(ctx context.Context, ownerID, folder string) (int, error) {
	folder = strings.Trim(folder, "/")
	query := s.db.NewDelete().
		Model((*models.File)(nil)).
		Where("user_id = ?", ownerID)
	if folder != "" {
		query = query.WhereGroup(" AND ", func(q *bun.DeleteQuery) *bun.DeleteQuery {
			return q.
				Where("file_path = ?", folder).
				WhereOr(`file_path LIKE ? ESCAPE '\'`, escapeLike(folder)+"/%")
		})
	}

	res, err := query.Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return int(n), nil
}

// FeedOptions pages through a feed. A zero Limit means DefaultFeedLimit.
type FeedOptions struct {
	Limit  int
	Offset int
}

func (o FeedOptions) normalize() FeedOptions {
	switch {
	case o.Limit <= 0:
		o.Limit = DefaultFeedLimit
	case o.Limit > MaxFeedLimit:
		o.Limit = MaxFeedLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// ListPublicFeed returns public records from every owner, newest first, with
// the owner loaded so callers can show the username.
func (s *Service) ListPublicFeed(ctx context.Context, opts FeedOptions) ([]*models.File, int, error) {
	return s.listPublic(ctx, "", opts.normalize())
}

// ListOwnerPublicFeed is ListPublicFeed limited to one owner. It fails with
// NotFound when the owner doesn't exist.
func (s *Service) ListOwnerPublicFeed(ctx context.Context, ownerID string, opts FeedOptions) ([]*models.File, int, error) {
	exists, err := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("id = ?", ownerID).
		Exists(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	if !exists {
		return nil, 0, errcodes.NotFound("User")
	}
	return s.listPublic(ctx, ownerID, opts.normalize())
}

func (s *Service) listPublic(ctx context.Context, ownerID string, opts FeedOptions) ([]*models.File, int, error) {
	files := []*models.File{}
	query := s.db.NewSelect().
		Model(&files).
		Relation("User").
		Where("f.is_public = ?", true).
		Order("f.created_at DESC", "f.id DESC").
		Limit(opts.Limit).
		Offset(opts.Offset)
	if ownerID != "" {
		query = query.Where("f.user_id = ?", ownerID)
	}

	total, err := query.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	return files, total, nil
}

// RetrievePublic returns a public record with its owner loaded. Private and
// unknown records are both reported as NotFound.
func (s *Service) RetrievePublic(ctx context.Context, id string) (*models.File, error) {
	file := &models.File{}
	err := s.db.NewSelect().
		Model(file).
		Relation("User").
		Where("f.id = ?", id).
		Where("f.is_public = ?", true).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errcodes.NotFound("Public note")
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return file, nil
}

// CountPublic returns how many public records owner has.
func (s *Service) CountPublic(ctx context.Context, ownerID string) (int, error) {
	n, err := s.db.NewSelect().
		Model((*models.File)(nil)).
		Where("user_id = ?", ownerID).
		Where("is_public = ?", true).
		Count(ctx)
	return n, errors.WithStack(err)
}

// ListOwnerRecords returns every record owner has, ordered by path.
func (s *Service) ListOwnerRecords(ctx context.Context, ownerID string) ([]*models.File, error) {
	files := []*models.File{}
	err := s.db.NewSelect().
		Model(&files).
		Where("f.user_id = ?", ownerID).
		Order("f.file_path ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return files, nil
}

// ListOwners returns the ids of every owner that has at least one record.
func (s *Service) ListOwners(ctx context.Context) ([]string, error) {
	var owners []string
	err := s.db.NewSelect().
		Model((*models.File)(nil)).
		ColumnExpr("DISTINCT user_id").
		Order("user_id ASC").
		Scan(ctx, &owners)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return owners, nil
}

// Reconcile deletes owner's records whose path isn't in present. Records
// updated at or after since are kept, since their file may have been written
// after present was collected. It returns the paths that were removed.
func (s *Service) Reconcile(ctx context.Context, ownerID string, present map[string]struct{}, since time.Time) ([]string, error) {
	records, err := s.ListOwnerRecords(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var ids, removed []string
	for _, record := range records {
		if _, ok := present[record.FilePath]; ok {
			continue
		}
		if !record.UpdatedAt.Before(since) {
			continue
		}
		ids = append(ids, record.ID)
		removed = append(removed, record.FilePath)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	_, err = s.db.NewDelete().
		Model((*models.File)(nil)).
		Where("user_id = ?", ownerID).
		Where("id IN (?)", bun.In(ids)).
		Where("updated_at < ?", since).
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return removed, nil
}

func (s *Service) retrieveByPath(ctx context.Context, ownerID, filePath string) (*models.File, error) {
	file := &models.File{}
	err := s.db.NewSelect().
		Model(file).
		Where("f.user_id = ?", ownerID).
		Where("f.file_path = ?", filePath).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return file, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
