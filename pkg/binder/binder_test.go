package binder

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type params struct {
	Path     string `json:"path" mod:"trim" validate:"required,relpath,max=20"`
	Username string `json:"username,omitempty" validate:"omitempty,username"`
	Index    *bool  `json:"index,omitempty"`
}

type query struct {
	Q     string `query:"q" json:"q"`
	Limit int    `query:"limit" json:"limit" default:"20" validate:"min=1,max=100"`
}

func TestBind(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	t.Run("only allows application/json bodies", func(t *testing.T) {
		t.Parallel()
		c := newContext(http.MethodPost, `{"path":"a.md"}`, echo.MIMEApplicationXML)
		err := b.Bind(&params{}, c)
		assert.Contains(t, err.Error(), "Unsupported Media Type")
	})

	t.Run("disallows unknown fields", func(t *testing.T) {
		t.Parallel()
		c := newContext(http.MethodPost, `{"path":"a.md","foo":"bar"}`, echo.MIMEApplicationJSON)
		err := b.Bind(&params{}, c)
		assert.Contains(t, err.Error(), `Unknown Parameter "foo"`)
	})

	t.Run("returns a good message for type errors", func(t *testing.T) {
		t.Parallel()
		c := newContext(http.MethodPost, `{"path":123}`, echo.MIMEApplicationJSON)
		err := b.Bind(&params{}, c)
		assert.Contains(t, err.Error(), `"path" should be of type string`)
	})

	t.Run("trims and validates", func(t *testing.T) {
		t.Parallel()
		c := newContext(http.MethodPost, `{"path":"  notes/a.md  ","index":true}`, echo.MIMEApplicationJSON)
		p := params{}
		require.NoError(t, b.Bind(&p, c))
		assert.Equal(t, "notes/a.md", p.Path)
		require.NotNil(t, p.Index)
		assert.True(t, *p.Index)
	})

	t.Run("rejects traversal with a validation error", func(t *testing.T) {
		t.Parallel()
		c := newContext(http.MethodPost, `{"path":"../etc/passwd"}`, echo.MIMEApplicationJSON)
		err := b.Bind(&params{}, c)
		assert.Contains(t, err.Error(), "relative to your notes folder")
	})

	t.Run("rejects bad usernames", func(t *testing.T) {
		t.Parallel()
		c := newContext(http.MethodPost, `{"path":"a.md","username":"bad name"}`, echo.MIMEApplicationJSON)
		err := b.Bind(&params{}, c)
		assert.Contains(t, err.Error(), "may only contain letters")
	})

	t.Run("requires a body on writes", func(t *testing.T) {
		t.Parallel()
		c := newContext(http.MethodPost, "", echo.MIMEApplicationJSON)
		err := b.Bind(&params{}, c)
		assert.Contains(t, err.Error(), "Request body can't be empty.")
	})

	t.Run("decodes query strings with defaults", func(t *testing.T) {
		t.Parallel()
		c := newContext(http.MethodGet, "", "")
		c.Request().URL.RawQuery = "q=Hello"
		q := query{}
		require.NoError(t, b.Bind(&q, c))
		assert.Equal(t, "Hello", q.Q)
		assert.Equal(t, 20, q.Limit)
	})

	t.Run("reports query conversion errors", func(t *testing.T) {
		t.Parallel()
		c := newContext(http.MethodGet, "", "")
		c.Request().URL.RawQuery = "limit=lots"
		err := b.Bind(&query{}, c)
		assert.Contains(t, err.Error(), `"limit" should be of type int`)
	})

	t.Run("reports unknown query parameters", func(t *testing.T) {
		t.Parallel()
		c := newContext(http.MethodGet, "", "")
		c.Request().URL.RawQuery = "bogus=1"
		err := b.Bind(&query{}, c)
		assert.Contains(t, err.Error(), `Unknown Parameter "bogus"`)
	})
}

func newContext(method, payload, mime string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(payload))
	if mime != "" {
		req.Header.Set(echo.HeaderContentType, mime)
	}
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr)
}
