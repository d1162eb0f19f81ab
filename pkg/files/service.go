package files

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/inkwellnotes/inkwell/pkg/config"
	"github.com/inkwellnotes/inkwell/pkg/errcodes"
	"github.com/inkwellnotes/inkwell/pkg/markdown"
	"github.com/inkwellnotes/inkwell/pkg/metadata"
	"github.com/inkwellnotes/inkwell/pkg/metrics"
	"github.com/inkwellnotes/inkwell/pkg/sandbox"
	"github.com/inkwellnotes/inkwell/pkg/tree"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const markdownExt = ".md"

// Service reads and mutates the files under an owner's root and keeps the
// metadata index in step with content changes. The filesystem is always the
// source of truth for whether a file exists.
type Service struct {
	sandbox            *sandbox.Sandbox
	metadataService    *metadata.Service
	folderDeletePolicy string
}

func NewService(sb *sandbox.Sandbox, metadataService *metadata.Service, folderDeletePolicy string) *Service {
	return &Service{
		sandbox:            sb,
		metadataService:    metadataService,
		folderDeletePolicy: folderDeletePolicy,
	}
}

// Tree returns the owner's notes as a hierarchy, creating the owner's root on
// first access.
func (s *Service) Tree(ctx context.Context, owner string) ([]*tree.FileNode, error) {
	root, err := s.sandbox.UserRoot(owner)
	if err != nil {
		return nil, err
	}
	return tree.Build(ctx, root)
}

// Read returns the content of the file at path.
func (s *Service) Read(ctx context.Context, owner, path string) ([]byte, error) {
	abs, err := s.sandbox.Resolve(owner, path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if isNotExist(err) {
			return nil, errcodes.NotFound("File")
		}
		return nil, errors.WithStack(err)
	}
	if info.IsDir() {
		return nil, errcodes.InvalidPath("Path is a folder.")
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		if isNotExist(err) {
			return nil, errcodes.NotFound("File")
		}
		return nil, errors.WithStack(err)
	}
	return content, nil
}

// WriteOptions describes a content write. Index registers a record for the
// file in the metadata index when it doesn't have one yet.
type WriteOptions struct {
	OwnerID string
	Path    string
	Content []byte
	Index   bool
}

// WriteResult is the outcome of a write. RecordID is nil when the file has no
// metadata record.
type WriteResult struct {
	Path     string
	RecordID *string
}

// Write replaces the content of a markdown file, creating it and any missing
// parent folders as needed. A metadata failure after the content is on disk
// is returned to the caller but the file is kept.
func (s *Service) Write(ctx context.Context, opts WriteOptions) (*WriteResult, error) {
	abs, err := s.sandbox.Resolve(opts.OwnerID, opts.Path)
	if err != nil {
		return nil, err
	}
	if err := sandbox.ValidateFilename(opts.Path); err != nil {
		return nil, err
	}
	if filepath.Ext(abs) != markdownExt {
		return nil, errcodes.InvalidExtension()
	}
	if err := checkText(opts.Content); err != nil {
		return nil, err
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return nil, errcodes.InvalidPath("Path is a folder.")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		if errors.Is(err, syscall.ENOTDIR) || errors.Is(err, fs.ErrExist) {
			return nil, errcodes.InvalidPath("Parent path is not a folder.")
		}
		return nil, errors.WithStack(err)
	}
	if err := writeAtomic(abs, opts.Content); err != nil {
		return nil, err
	}

	rel, err := s.sandbox.Rel(opts.OwnerID, abs)
	if err != nil {
		return nil, err
	}
	result := &WriteResult{Path: rel}

	log := logger.FromContext(ctx)
	preview, err := markdown.Preview(opts.Content)
	if err != nil {
		log.Warn("failed to derive preview", logger.Data{"path": rel, "error": err.Error()})
	}
	upsert := metadata.UpsertOptions{
		OwnerID:  opts.OwnerID,
		FilePath: rel,
		Title:    markdown.Title(rel, opts.Content),
		Preview:  preview,
	}

	operation := "touch"
	refresh := s.metadataService.Touch
	if opts.Index {
		operation = "upsert"
		refresh = s.metadataService.Upsert
	}
	record, err := refresh(ctx, upsert)
	if err != nil {
		metrics.SyncFailed(operation)
		log.Err(err).Error("file written but metadata update failed", logger.Data{"path": rel})
		return nil, errors.Wrap(err, "failed to update file metadata")
	}
	if record != nil {
		result.RecordID = &record.ID
	}
	return result, nil
}

// Delete removes a file and its metadata record, if it has one.
func (s *Service) Delete(ctx context.Context, owner, path string) error {
	abs, err := s.sandbox.Resolve(owner, path)
	if err != nil {
		return err
	}

	info, err := os.Lstat(abs)
	if err != nil {
		if isNotExist(err) {
			return errcodes.NotFound("File")
		}
		return errors.WithStack(err)
	}
	if info.IsDir() {
		return errcodes.InvalidPath("Path is a folder.")
	}

	if err := os.Remove(abs); err != nil {
		if isNotExist(err) {
			return errcodes.NotFound("File")
		}
		return errors.WithStack(err)
	}

	rel, err := s.sandbox.Rel(owner, abs)
	if err != nil {
		return err
	}
	if err := s.metadataService.Remove(ctx, owner, rel); err != nil {
		metrics.SyncFailed("remove")
		logger.FromContext(ctx).Err(err).Error("file deleted but metadata removal failed", logger.Data{"path": rel})
		return errors.Wrap(err, "failed to remove file metadata")
	}
	return nil
}

// CreateFolder creates the folder at path along with any missing ancestors
// and returns its normalized relative path.
func (s *Service) CreateFolder(_ context.Context, owner, path string) (string, error) {
	abs, err := s.sandbox.Resolve(owner, path)
	if err != nil {
		return "", err
	}
	if err := sandbox.ValidateFolderName(path); err != nil {
		return "", err
	}

	if info, err := os.Lstat(abs); err == nil {
		if info.IsDir() {
			return "", errcodes.AlreadyExists("Folder")
		}
		return "", errcodes.AlreadyExists("File")
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		if errors.Is(err, syscall.ENOTDIR) || errors.Is(err, fs.ErrExist) {
			return "", errcodes.InvalidPath("Parent path is not a folder.")
		}
		return "", errors.WithStack(err)
	}
	return s.sandbox.Rel(owner, abs)
}

// DeleteFolder recursively removes a folder. Under the cascade policy the
// records of every file that was inside it are removed too; under the orphan
// policy they are left for the reconciler.
func (s *Service) DeleteFolder(ctx context.Context, owner, path string) error {
	abs, err := s.resolveFolder(owner, path, "Cannot delete your root folder.")
	if err != nil {
		return err
	}

	if err := os.RemoveAll(abs); err != nil {
		return errors.WithStack(err)
	}

	if s.folderDeletePolicy != config.FolderDeletePolicyCascade {
		return nil
	}

	rel, err := s.sandbox.Rel(owner, abs)
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx)
	removed, err := s.metadataService.RemoveUnder(ctx, owner, rel)
	if err != nil {
		metrics.SyncFailed("remove_under")
		log.Err(err).Error("folder deleted but metadata removal failed", logger.Data{"path": rel})
		return errors.Wrap(err, "failed to remove folder metadata")
	}
	if removed > 0 {
		log.Info("removed records under deleted folder", logger.Data{"path": rel, "count": removed})
	}
	return nil
}

// CopyFolder copies the whole subtree at source to destination, which must
// not exist yet. Copied files aren't registered in the metadata index.
func (s *Service) CopyFolder(ctx context.Context, owner, source, destination string) (string, error) {
	src, err := s.resolveFolder(owner, source, "Cannot copy your root folder.")
	if err != nil {
		return "", err
	}

	dst, err := s.sandbox.Resolve(owner, destination)
	if err != nil {
		return "", err
	}
	if err := sandbox.ValidateFolderName(destination); err != nil {
		return "", err
	}
	if _, err := os.Lstat(dst); err == nil {
		return "", errcodes.AlreadyExists("Destination")
	}
	if strings.HasPrefix(dst, src+string(filepath.Separator)) {
		return "", errcodes.InvalidPath("Cannot copy a folder into itself.")
	}

	if err := copyTree(ctx, src, dst); err != nil {
		return "", err
	}
	return s.sandbox.Rel(owner, dst)
}

// resolveFolder resolves path and checks that it names an existing folder
// other than the owner's root.
func (s *Service) resolveFolder(owner, path, rootMsg string) (string, error) {
	abs, err := s.sandbox.Resolve(owner, path)
	if err != nil {
		return "", err
	}
	isRoot, err := s.sandbox.IsRoot(owner, abs)
	if err != nil {
		return "", err
	}
	if isRoot {
		return "", errcodes.InvalidPath(rootMsg)
	}

	info, err := os.Lstat(abs)
	if err != nil {
		if isNotExist(err) {
			return "", errcodes.NotFound("Folder")
		}
		return "", errors.WithStack(err)
	}
	if !info.IsDir() {
		return "", errcodes.InvalidPath("Path is not a folder.")
	}
	return abs, nil
}

// isNotExist treats a path whose parent is a file the same as a missing path.
func isNotExist(err error) bool {
	return os.IsNotExist(err) || errors.Is(err, syscall.ENOTDIR)
}
