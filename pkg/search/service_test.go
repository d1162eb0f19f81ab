package search

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/inkwellnotes/inkwell/pkg/errcodes"
	"github.com/inkwellnotes/inkwell/pkg/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc  *Service
	root string
}

func newFixture(t *testing.T, maxFileBytes int64) *fixture {
	t.Helper()
	sb, err := sandbox.New(t.TempDir())
	require.NoError(t, err)
	root, err := sb.UserRoot("u1")
	require.NoError(t, err)
	return &fixture{svc: NewService(sb, maxFileBytes), root: root}
}

func (f *fixture) write(t *testing.T, rel string, content []byte) {
	t.Helper()
	path := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

func (f *fixture) search(t *testing.T, query, glob string) []Result {
	t.Helper()
	results, err := f.svc.Search(context.Background(), Options{OwnerID: "u1", Query: query, Glob: glob})
	require.NoError(t, err)
	return results
}

func paths(results []Result) []string {
	out := []string{}
	for _, r := range results {
		out = append(out, r.Path)
	}
	return out
}

func TestSearch_CaseInsensitive(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 0)
	f.write(t, "a.md", []byte("intro\nSay Hello to everyone\nbye"))
	f.write(t, "notes/deep/b.md", []byte("HELLO there"))
	f.write(t, "c.md", []byte("nothing to see"))

	results := f.search(t, "hello", "")
	require.Len(t, results, 2)
	assert.Equal(t, Result{Path: "a.md", Name: "a.md", Snippet: "Say Hello to everyone"}, results[0])
	assert.Equal(t, Result{Path: "notes/deep/b.md", Name: "b.md", Snippet: "HELLO there"}, results[1])

	results = f.search(t, "HeLLo", "")
	assert.Len(t, results, 2)
}

func TestSearch_EmptyQueryMatchesEverything(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 0)
	f.write(t, "a.md", []byte("first line\nsecond"))
	f.write(t, "b.md", []byte(""))
	f.write(t, "notes/c.md", []byte("x"))

	results := f.search(t, "", "")
	assert.Equal(t, []string{"a.md", "b.md", "notes/c.md"}, paths(results))
	assert.Equal(t, "first line", results[0].Snippet)
}

func TestSearch_OnlyMarkdown(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 0)
	f.write(t, "a.md", []byte("match"))
	f.write(t, "a.txt", []byte("match"))
	f.write(t, "a.md.bak", []byte("match"))

	assert.Equal(t, []string{"a.md"}, paths(f.search(t, "match", "")))
}

func TestSearch_IncludesHidden(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 0)
	f.write(t, ".hidden.md", []byte("match"))
	f.write(t, ".trash/old.md", []byte("match"))

	assert.Equal(t, []string{".hidden.md", ".trash/old.md"}, paths(f.search(t, "match", "")))
}

func TestSearch_SnippetTruncated(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 0)
	long := strings.Repeat("é", 150) + " needle"
	f.write(t, "a.md", []byte("# heading\r\n"+long+"\r\n"))

	results := f.search(t, "needle", "")
	require.Len(t, results, 1)
	assert.Equal(t, strings.Repeat("é", 100), results[0].Snippet)

	results = f.search(t, "heading", "")
	require.Len(t, results, 1)
	assert.Equal(t, "# heading", results[0].Snippet)
}

func TestSearch_MultiLineQueryFallsBackToFirstLine(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 0)
	f.write(t, "a.md", []byte("one\ntwo"))

	results := f.search(t, "one\ntwo", "")
	require.Len(t, results, 1)
	assert.Equal(t, "one", results[0].Snippet)
}

func TestSearch_SkipsUnreadable(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 16)
	f.write(t, "ok.md", []byte("match"))
	f.write(t, "big.md", []byte("match "+strings.Repeat("x", 32)))
	f.write(t, "binary.md", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 'm', 'a', 't', 'c', 'h'})
	f.write(t, "latin1.md", []byte("match \xe9"))

	outside := filepath.Join(t.TempDir(), "outside.md")
	require.NoError(t, os.WriteFile(outside, []byte("match"), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(f.root, "link.md")))

	assert.Equal(t, []string{"ok.md"}, paths(f.search(t, "match", "")))
}

func TestSearch_IncludesTextWithBinarySignatures(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 0)
	f.write(t, "gif.md", []byte("GIF89a is a format\nhello"))
	f.write(t, "pdf.md", []byte("%PDF-1.7 notes\nhello"))
	f.write(t, "zip.md", []byte("PK\x03\x04 hello"))
	f.write(t, "nul.md", []byte("hello\x00world"))
	f.write(t, "plain.md", []byte("hello"))

	expected := []string{"gif.md", "nul.md", "pdf.md", "plain.md", "zip.md"}
	assert.Equal(t, expected, paths(f.search(t, "hello", "")))
	assert.Equal(t, expected, paths(f.search(t, "", "")))

	results := f.search(t, "notes", "")
	require.Len(t, results, 1)
	assert.Equal(t, "%PDF-1.7 notes", results[0].Snippet)
}

func TestSearch_Glob(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 0)
	f.write(t, "a.md", []byte("match"))
	f.write(t, "journal/2026/jan.md", []byte("match"))
	f.write(t, "journal/feb.md", []byte("match"))

	assert.Equal(t, []string{"journal/2026/jan.md", "journal/feb.md"}, paths(f.search(t, "match", "journal/**")))
	assert.Equal(t, []string{"journal/feb.md"}, paths(f.search(t, "match", "journal/*.md")))

	for _, glob := range []string{"journal/[", "../*.md", "/abs/*.md"} {
		_, err := f.svc.Search(context.Background(), Options{OwnerID: "u1", Query: "match", Glob: glob})
		require.Error(t, err, glob)
		assert.True(t, errcodes.HasCode(err, errcodes.CodeInvalidPath), glob)
	}
}

func TestSearch_OwnerIsolation(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 0)
	f.write(t, "a.md", []byte("secret"))

	results, err := f.svc.Search(context.Background(), Options{OwnerID: "u2", Query: "secret"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_Cancelled(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 0)
	f.write(t, "a.md", []byte("x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Search(ctx, Options{OwnerID: "u1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidatePattern(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidatePattern(""))
	assert.NoError(t, ValidatePattern("**/*.md"))
	assert.NoError(t, ValidatePattern("notes/{a,b}/*.md"))
	assert.Error(t, ValidatePattern("notes/[a"))
	assert.Error(t, ValidatePattern("../x"))
}
