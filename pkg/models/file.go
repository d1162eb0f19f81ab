package models

import (
	"time"

	"github.com/uptrace/bun"
)

// File is the metadata record kept for a markdown file. The file's content
// lives on disk; this row only carries what the feed and privacy controls need.
type File struct {
	bun.BaseModel `bun:"table:files,alias:f"`

	ID        string    `bun:",pk" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    string    `bun:",nullzero" json:"user_id"`
	User      *User     `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	FilePath  string    `bun:",nullzero" json:"file_path"`
	Title     string    `json:"title"`
	IsPublic  bool      `json:"is_public"`
	Preview   *string   `json:"preview"`
}

// Username returns the owner's username when the user relation was loaded.
func (f *File) Username() string {
	if f.User == nil {
		return ""
	}
	return f.User.Username
}
