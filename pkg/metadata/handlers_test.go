package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/inkwellnotes/inkwell/pkg/auth"
	"github.com/inkwellnotes/inkwell/pkg/binder"
	"github.com/inkwellnotes/inkwell/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type handlerFixture struct {
	e       *echo.Echo
	db      *bun.DB
	svc     *Service
	authSvc *auth.Service
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	db := newTestDB(t)

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	authSvc := auth.NewService(db, "test-secret")
	svc := NewService(db)
	RegisterRoutes(e, svc, auth.NewMiddleware(authSvc))

	return &handlerFixture{e: e, db: db, svc: svc, authSvc: authSvc}
}

func (f *handlerFixture) token(t *testing.T, id, username string) string {
	t.Helper()
	user := createUser(t, f.db, id, username)
	token, err := f.authSvc.GenerateToken(user)
	require.NoError(t, err)
	return token
}

func (f *handlerFixture) do(method, target, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.e.ServeHTTP(rr, req)
	return rr
}

func TestSetPrivacyHandler(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)
	adaToken := f.token(t, "u1", "ada")
	bobToken := f.token(t, "u2", "bob")

	file, err := f.svc.Upsert(context.Background(), UpsertOptions{OwnerID: "u1", FilePath: "a.md", Title: "A"})
	require.NoError(t, err)

	rr := f.do(http.MethodPatch, "/files/"+file.ID+"/privacy", adaToken, `{"is_public":true}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := RecordResponse{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, file.ID, resp.ID)
	assert.True(t, resp.IsPublic)
	assert.Equal(t, "a.md", resp.FilePath)

	rr = f.do(http.MethodPatch, "/files/"+file.ID+"/privacy", bobToken, `{"is_public":false}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(http.MethodPatch, "/files/"+file.ID+"/privacy", adaToken, `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = f.do(http.MethodPatch, "/files/"+file.ID+"/privacy", "", `{"is_public":true}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestListRecordsHandler(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)
	token := f.token(t, "u1", "ada")
	f.token(t, "u2", "bob")

	ctx := context.Background()
	for _, p := range []string{"b.md", "a.md"} {
		_, err := f.svc.Upsert(ctx, UpsertOptions{OwnerID: "u1", FilePath: p, Title: p})
		require.NoError(t, err)
	}
	_, err := f.svc.Upsert(ctx, UpsertOptions{OwnerID: "u2", FilePath: "c.md", Title: "c"})
	require.NoError(t, err)

	rr := f.do(http.MethodGet, "/files/records", token, "")
	require.Equal(t, http.StatusOK, rr.Code)

	resp := []RecordResponse{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "a.md", resp[0].FilePath)
	assert.Equal(t, "b.md", resp[1].FilePath)
}
