package files

import "github.com/inkwellnotes/inkwell/pkg/tree"

// PathQuery addresses a file or folder relative to the owner's root. Path
// rules are enforced by the sandbox so rejections carry the invalid_path code.
type PathQuery struct {
	Path string `query:"path" json:"path"`
}

// WritePayload is the body of a create or update.
type WritePayload struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Index   bool   `json:"index"`
}

// FolderPayload is the body of a folder create.
type FolderPayload struct {
	Path string `json:"path"`
}

// CopyFolderPayload is the body of a folder copy.
type CopyFolderPayload struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

type TreeResponse struct {
	Nodes []*tree.FileNode `json:"nodes"`
}

type ContentResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type WriteResponse struct {
	Path     string  `json:"path"`
	RecordID *string `json:"record_id"`
}

type FolderResponse struct {
	Path string `json:"path"`
}
