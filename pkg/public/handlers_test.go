package public

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/inkwellnotes/inkwell/pkg/binder"
	"github.com/inkwellnotes/inkwell/pkg/config"
	"github.com/inkwellnotes/inkwell/pkg/errcodes"
	"github.com/inkwellnotes/inkwell/pkg/files"
	"github.com/inkwellnotes/inkwell/pkg/metadata"
	"github.com/inkwellnotes/inkwell/pkg/migrations"
	"github.com/inkwellnotes/inkwell/pkg/models"
	"github.com/inkwellnotes/inkwell/pkg/sandbox"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

type fixture struct {
	e        *echo.Echo
	sandbox  *sandbox.Sandbox
	metadata *metadata.Service
	files    *files.Service
}

func newFixture(t *testing.T, requestsPerSecond float64) *fixture {
	t.Helper()
	db := newTestDB(t)
	sb, err := sandbox.New(t.TempDir())
	require.NoError(t, err)

	for _, u := range []struct{ id, name string }{{"u1", "ada"}, {"u2", "bob"}} {
		now := time.Now().UTC()
		_, err := db.NewInsert().Model(&models.User{
			ID:           u.id,
			CreatedAt:    now,
			UpdatedAt:    now,
			Username:     u.name,
			Email:        u.name + "@example.com",
			PasswordHash: "x",
			IsActive:     true,
		}).Exec(context.Background())
		require.NoError(t, err)
	}

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	metadataService := metadata.NewService(db)
	filesService := files.NewService(sb, metadataService, config.FolderDeletePolicyCascade)
	RegisterRoutes(e, metadataService, filesService, requestsPerSecond)

	return &fixture{e: e, sandbox: sb, metadata: metadataService, files: filesService}
}

func (f *fixture) publish(t *testing.T, owner, path, content string) string {
	t.Helper()
	ctx := context.Background()
	result, err := f.files.Write(ctx, files.WriteOptions{OwnerID: owner, Path: path, Content: []byte(content), Index: true})
	require.NoError(t, err)
	require.NotNil(t, result.RecordID)
	_, err = f.metadata.SetPrivacy(ctx, *result.RecordID, owner, true)
	require.NoError(t, err)
	return *result.RecordID
}

func (f *fixture) get(target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestListNotes(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 0)
	id := f.publish(t, "u1", "a.md", "# Shared\nhello world")
	f.publish(t, "u2", "b.md", "# Other")
	_, err := f.files.Write(context.Background(), files.WriteOptions{OwnerID: "u1", Path: "private.md", Content: []byte("x"), Index: true})
	require.NoError(t, err)

	rr := f.get("/public/notes")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	feed := metadata.FeedResponse{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &feed))
	assert.Equal(t, 2, feed.Total)
	require.Len(t, feed.Notes, 2)

	ids := []string{feed.Notes[0].ID, feed.Notes[1].ID}
	assert.Contains(t, ids, id)

	rr = f.get("/public/notes?limit=1&offset=1")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &feed))
	assert.Equal(t, 2, feed.Total)
	assert.Len(t, feed.Notes, 1)

	rr = f.get("/public/notes?limit=1000")
	assert.Equal(t, http.StatusOK, rr.Code, "large limits are clamped")

	rr = f.get("/public/notes?offset=-1")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestListUserNotes(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 0)
	f.publish(t, "u1", "a.md", "x")
	f.publish(t, "u2", "b.md", "y")

	rr := f.get("/public/users/u2/notes")
	require.Equal(t, http.StatusOK, rr.Code)
	feed := metadata.FeedResponse{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &feed))
	require.Len(t, feed.Notes, 1)
	assert.Equal(t, "bob", feed.Notes[0].Username)
	assert.Equal(t, "u2", feed.Notes[0].UserID)

	rr = f.get("/public/users/ghost/notes")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNoteContent(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 0)
	id := f.publish(t, "u1", "notes/a.md", "# Shared\nhello")

	rr := f.get("/public/notes/" + id + "/content")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	note := NoteContentResponse{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &note))
	assert.Equal(t, id, note.ID)
	assert.Equal(t, "Shared", note.Title)
	assert.Equal(t, "ada", note.Username)
	assert.Equal(t, "# Shared\nhello", note.Content)

	root, err := f.sandbox.UserRoot("u1")
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(root, "notes", "a.md")))

	rr = f.get("/public/notes/" + id + "/content")
	assert.Equal(t, http.StatusNotFound, rr.Code, "records without a file are hidden")

	private, err := f.files.Write(context.Background(), files.WriteOptions{OwnerID: "u1", Path: "p.md", Content: []byte("x"), Index: true})
	require.NoError(t, err)
	rr = f.get("/public/notes/" + *private.RecordID + "/content")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1)

	statuses := map[int]int{}
	for i := 0; i < 10; i++ {
		statuses[f.get("/public/notes").Code]++
	}
	assert.Positive(t, statuses[http.StatusOK])
	assert.Positive(t, statuses[http.StatusTooManyRequests])
}
