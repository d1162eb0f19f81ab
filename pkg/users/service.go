package users

import (
	"context"
	"database/sql"

	"github.com/inkwellnotes/inkwell/pkg/errcodes"
	"github.com/inkwellnotes/inkwell/pkg/metadata"
	"github.com/inkwellnotes/inkwell/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Service handles public user lookups.
type Service struct {
	db              *bun.DB
	metadataService *metadata.Service
}

// NewService creates a new users service.
func NewService(db *bun.DB, metadataService *metadata.Service) *Service {
	return &Service{db: db, metadataService: metadataService}
}

// Profile is what anyone may see about a user.
type Profile struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	PublicNoteCount int    `json:"public_note_count"`
}

// RetrieveProfile returns the public profile of an active user. Unknown and
// deactivated users are both reported as NotFound.
func (s *Service) RetrieveProfile(ctx context.Context, id string) (*Profile, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("id = ?", id).
		Where("is_active = ?", true).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("User")
		}
		return nil, errors.WithStack(err)
	}

	count, err := s.metadataService.CountPublic(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		ID:              user.ID,
		Username:        user.Username,
		PublicNoteCount: count,
	}, nil
}
