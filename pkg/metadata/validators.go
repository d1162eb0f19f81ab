package metadata

import (
	"time"

	"github.com/inkwellnotes/inkwell/pkg/models"
)

// PrivacyPayload toggles whether a note appears in the public feed.
type PrivacyPayload struct {
	IsPublic *bool `json:"is_public" validate:"required"`
}

// FeedQuery pages through a public feed. Limits above MaxFeedLimit are
// clamped rather than rejected.
type FeedQuery struct {
	Limit  int `query:"limit" json:"limit,omitempty" default:"20" validate:"min=0"`
	Offset int `query:"offset" json:"offset,omitempty" validate:"min=0"`
}

// RecordResponse is a file record as seen by its owner.
type RecordResponse struct {
	ID        string    `json:"id"`
	FilePath  string    `json:"file_path"`
	Title     string    `json:"title"`
	IsPublic  bool      `json:"is_public"`
	Preview   *string   `json:"preview"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublicNote is a feed entry. It omits the file path, which only means
// something to the owner.
type PublicNote struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Preview   *string   `json:"preview"`
	Username  string    `json:"username"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FeedResponse is a page of public notes.
type FeedResponse struct {
	Notes []PublicNote `json:"notes"`
	Total int          `json:"total"`
}

func NewRecordResponse(file *models.File) RecordResponse {
	return RecordResponse{
		ID:        file.ID,
		FilePath:  file.FilePath,
		Title:     file.Title,
		IsPublic:  file.IsPublic,
		Preview:   file.Preview,
		CreatedAt: file.CreatedAt,
		UpdatedAt: file.UpdatedAt,
	}
}

func NewPublicNote(file *models.File) PublicNote {
	return PublicNote{
		ID:        file.ID,
		Title:     file.Title,
		Preview:   file.Preview,
		Username:  file.Username(),
		UserID:    file.UserID,
		CreatedAt: file.CreatedAt,
		UpdatedAt: file.UpdatedAt,
	}
}

func NewFeedResponse(files []*models.File, total int) FeedResponse {
	notes := make([]PublicNote, 0, len(files))
	for _, file := range files {
		notes = append(notes, NewPublicNote(file))
	}
	return FeedResponse{Notes: notes, Total: total}
}
