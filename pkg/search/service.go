package search

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/inkwellnotes/inkwell/pkg/errcodes"
	"github.com/inkwellnotes/inkwell/pkg/metrics"
	"github.com/inkwellnotes/inkwell/pkg/sandbox"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const (
	corpusPattern    = "**/*.md"
	maxSnippetLength = 100
)

type Service struct {
	sandbox      *sandbox.Sandbox
	maxFileBytes int64
}

func NewService(sb *sandbox.Sandbox, maxFileBytes int64) *Service {
	return &Service{
		sandbox:      sb,
		maxFileBytes: maxFileBytes,
	}
}

// Options describes a search. Glob optionally narrows the corpus to paths
// matching a doublestar pattern relative to the owner's root.
type Options struct {
	OwnerID string
	Query   string
	Glob    string
}

type Result struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
}

// ValidatePattern checks that glob is a usable pattern relative to the
// owner's root.
func ValidatePattern(glob string) error {
	if glob == "" {
		return nil
	}
	if strings.HasPrefix(glob, "/") || strings.Contains(glob, "..") || !doublestar.ValidatePattern(glob) {
		return errcodes.InvalidPath("Invalid glob pattern.")
	}
	return nil
}

// Search scans every markdown file under the owner's root, hidden ones
// included, for a case-insensitive substring match. Files that can't be read
// or aren't valid UTF-8 are skipped. Results are ordered by path.
func (s *Service) Search(ctx context.Context, opts Options) ([]Result, error) {
	if err := ValidatePattern(opts.Glob); err != nil {
		return nil, err
	}
	root, err := s.sandbox.UserRoot(opts.OwnerID)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	query := strings.ToLower(opts.Query)

	var mu sync.Mutex
	results := []Result{}

	skip := func(rel, reason string) {
		log.Warn("skipping file during search", logger.Data{"path": rel, "reason": reason})
		metrics.Skipped(metrics.ComponentSearch, reason)
	}

	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel := relative(root, p)
		if err != nil {
			skip(rel, metrics.ReasonPermission)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := doublestar.Match(corpusPattern, rel); !ok {
			return nil
		}
		if opts.Glob != "" {
			if ok, _ := doublestar.Match(opts.Glob, rel); !ok {
				return nil
			}
		}
		if d.Type()&os.ModeSymlink != 0 {
			skip(rel, metrics.ReasonSymlink)
			return nil
		}

		content, reason := s.readText(p)
		if reason != "" {
			skip(rel, reason)
			return nil
		}

		lower := strings.ToLower(string(content))
		if !strings.Contains(lower, query) {
			return nil
		}

		result := Result{
			Path:    rel,
			Name:    d.Name(),
			Snippet: snippet(string(content), query),
		}
		mu.Lock()
		results = append(results, result)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})
	return results, nil
}

// readText returns the content of the file at p, or the reason it was
// skipped.
func (s *Service) readText(p string) ([]byte, string) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, metrics.ReasonReadError
	}
	if s.maxFileBytes > 0 && info.Size() > s.maxFileBytes {
		return nil, metrics.ReasonTooLarge
	}

	content, err := os.ReadFile(p)
	if err != nil {
		if os.IsPermission(err) {
			return nil, metrics.ReasonPermission
		}
		return nil, metrics.ReasonReadError
	}

	if !utf8.Valid(content) {
		return nil, metrics.ReasonNotText
	}
	return content, ""
}

// snippet returns the first line containing query, which must already be
// lower case, falling back to the first line of content. A trailing carriage
// return is dropped so CRLF files give the same snippet as LF ones.
func snippet(content, query string) string {
	lines := strings.Split(content, "\n")
	line := lines[0]
	for _, l := range lines {
		if strings.Contains(strings.ToLower(l), query) {
			line = l
			break
		}
	}
	line = strings.TrimRight(line, "\r")
	if utf8.RuneCountInString(line) <= maxSnippetLength {
		return line
	}
	return string([]rune(line)[:maxSnippetLength])
}

func relative(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}
