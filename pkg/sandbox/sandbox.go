package sandbox

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/inkwellnotes/inkwell/pkg/errcodes"
	"github.com/pkg/errors"
)

var (
	ownerRE      = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	filenameRE   = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	folderNameRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Sandbox confines every path an owner supplies to that owner's directory
// under the notes root.
type Sandbox struct {
	root string
}

// New creates the notes root if needed and returns a Sandbox over its
// canonical location.
func New(notesDir string) (*Sandbox, error) {
	abs, err := filepath.Abs(notesDir)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create notes dir %s", abs)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Sandbox{root: canonical}, nil
}

// Root returns the canonical notes root shared by every owner.
func (s *Sandbox) Root() string {
	return s.root
}

// UserRoot returns the canonical root directory for owner, creating it on
// first access.
func (s *Sandbox) UserRoot(owner string) (string, error) {
	if !ownerRE.MatchString(owner) {
		return "", errcodes.InvalidPath("Invalid owner.")
	}
	dir := filepath.Join(s.root, "user_"+owner)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create root for %s", owner)
	}
	canonical, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return canonical, nil
}

// Resolve turns a caller-supplied relative path into an absolute path inside
// the owner's root. The target doesn't need to exist. Rejected paths never
// touch anything except the owner's root directory itself.
func (s *Sandbox) Resolve(owner, relativePath string) (string, error) {
	rel, err := clean(relativePath)
	if err != nil {
		return "", err
	}

	root, err := s.UserRoot(owner)
	if err != nil {
		return "", err
	}

	canonical, err := canonicalize(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}

	if !within(root, canonical) {
		return "", errcodes.InvalidPath("Path is outside of your notes.")
	}
	return canonical, nil
}

// Rel converts an absolute path inside the owner's root back to the
// slash-separated form callers address files with.
func (s *Sandbox) Rel(owner, absPath string) (string, error) {
	root, err := s.UserRoot(owner)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errcodes.InvalidPath("Path is outside of your notes.")
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}

// IsRoot reports whether absPath is the owner's root directory.
func (s *Sandbox) IsRoot(owner, absPath string) (bool, error) {
	root, err := s.UserRoot(owner)
	if err != nil {
		return false, err
	}
	return root == absPath, nil
}

// ValidateFilename checks the final segment of path against the file naming
// rules.
func ValidateFilename(path string) error {
	name := lastSegment(path)
	if !filenameRE.MatchString(name) || name == "." || name == ".." {
		return errcodes.InvalidName("File names may only contain letters, numbers, dots, underscores and hyphens.")
	}
	return nil
}

// ValidateFolderName checks the final segment of path against the folder
// naming rules. Dots aren't allowed so folders can't be mistaken for files.
func ValidateFolderName(path string) error {
	if !folderNameRE.MatchString(lastSegment(path)) {
		return errcodes.InvalidName("Folder names may only contain letters, numbers, underscores and hyphens.")
	}
	return nil
}

func clean(relativePath string) (string, error) {
	p := strings.TrimSpace(relativePath)
	switch {
	case strings.HasPrefix(p, "/"), filepath.IsAbs(p):
		return "", errcodes.InvalidPath("Path must be relative.")
	case strings.Contains(p, ".."):
		return "", errcodes.InvalidPath("Path cannot contain \"..\".")
	case strings.ContainsAny(p, "\\\x00"):
		return "", errcodes.InvalidPath("Path contains invalid characters.")
	}
	p = strings.Trim(p, "/")
	if strings.TrimSpace(p) == "" {
		return "", errcodes.InvalidPath("Path cannot be empty.")
	}
	return p, nil
}

func lastSegment(path string) string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// canonicalize resolves symlinks in the longest existing prefix of path and
// appends the part that doesn't exist yet.
func canonicalize(path string) (string, error) {
	existing := path
	var rest []string
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			break
		}
		rest = append([]string{filepath.Base(existing)}, rest...)
		existing = parent
	}

	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		// A dangling symlink can't be shown to stay inside the root.
		return "", errcodes.InvalidPath("Path could not be resolved.")
	}
	return filepath.Join(append([]string{resolved}, rest...)...), nil
}

func within(root, path string) bool {
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}
