package public

import "github.com/inkwellnotes/inkwell/pkg/metadata"

// NoteContentResponse is a public note together with its markdown source.
type NoteContentResponse struct {
	metadata.PublicNote
	Content string `json:"content"`
}
