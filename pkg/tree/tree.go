package tree

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/inkwellnotes/inkwell/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
)

const (
	KindFile   = "file"
	KindFolder = "folder"
)

// FileNode is one entry of an owner's notes tree. Path is relative to the
// owner's root and slash separated.
type FileNode struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Type     string      `json:"type"`
	Children []*FileNode `json:"children,omitempty"`
}

func (n *FileNode) IsFolder() bool {
	return n.Type == KindFolder
}

// MarshalJSON always emits children for folders, even empty ones, and never
// for files.
func (n *FileNode) MarshalJSON() ([]byte, error) {
	type node FileNode
	if !n.IsFolder() {
		return json.Marshal((*node)(n))
	}
	children := n.Children
	if children == nil {
		children = []*FileNode{}
	}
	return json.Marshal(struct {
		*node
		Children []*FileNode `json:"children"`
	}{(*node)(n), children})
}

type pending struct {
	dir    string
	rel    string
	target *[]*FileNode
}

// Build lists root recursively and returns its children. Hidden entries and
// symlinks are left out. Folders come before files at every level, each group
// sorted by name. A subdirectory that can't be listed shows up with no
// children; only a failure to list root itself is returned as an error.
func Build(ctx context.Context, root string) ([]*FileNode, error) {
	log := logger.FromContext(ctx)

	nodes := []*FileNode{}
	stack := []pending{{dir: root, target: &nodes}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, errors.WithStack(err)
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(current.dir)
		if err != nil {
			if current.dir == root {
				return nil, errors.WithStack(err)
			}
			log.Warn("skipping unreadable folder", logger.Data{"path": current.rel, "reason": err.Error()})
			metrics.Skipped(metrics.ComponentTree, metrics.ReasonPermission)
			continue
		}

		children := make([]*FileNode, 0, len(entries))
		for _, entry := range entries {
			name := entry.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}
			rel := path.Join(current.rel, name)
			if entry.Type()&os.ModeSymlink != 0 {
				log.Warn("skipping symlink", logger.Data{"path": rel, "reason": metrics.ReasonSymlink})
				metrics.Skipped(metrics.ComponentTree, metrics.ReasonSymlink)
				continue
			}
			node := &FileNode{Name: name, Path: rel, Type: KindFile}
			if entry.IsDir() {
				node.Type = KindFolder
				node.Children = []*FileNode{}
			}
			children = append(children, node)
		}

		sort.SliceStable(children, func(i, j int) bool {
			if children[i].IsFolder() != children[j].IsFolder() {
				return children[i].IsFolder()
			}
			return children[i].Name < children[j].Name
		})
		*current.target = children

		for _, child := range children {
			if child.IsFolder() {
				stack = append(stack, pending{
					dir:    filepath.Join(current.dir, child.Name),
					rel:    child.Path,
					target: &child.Children,
				})
			}
		}
	}

	return nodes, nil
}
