package files

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// writeAtomic writes content to a temporary file next to path and renames it
// into place, so readers see either the old content or the new content.
func writeAtomic(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return errors.WithStack(err)
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath) // Clean up temp file if we don't rename it
	}()

	if _, err := tmp.Write(content); err != nil {
		return errors.WithStack(err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return errors.WithStack(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.Rename(tmpPath, path))
}

// copyTree recreates the directory at src as dst. Symlinks inside src are
// skipped so a copy can't pull in content from outside the owner's root.
// A cancelled copy leaves whatever was already copied in place.
func copyTree(ctx context.Context, src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.WithStack(err)
		}
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return errors.WithStack(err)
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			return nil
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return errors.WithStack(err)
			}
			return errors.WithStack(os.MkdirAll(target, info.Mode().Perm()))
		case d.Type().IsRegular():
			return copyFile(path, target)
		default:
			return nil
		}
	})
}

// copyFile copies a file from source to destination.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return errors.WithStack(err)
	}
	defer sourceFile.Close()

	destFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.WithStack(err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return errors.WithStack(err)
	}

	// Copy file permissions
	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return errors.WithStack(err)
	}
	if err := destFile.Chmod(sourceInfo.Mode()); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(destFile.Close())
}
