package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lprior-repo/sitekit/internal/platform/requestctx"
)

func TestNewRendererRequiresLayout(t *testing.T) {
	t.Parallel()

	_, err := NewRenderer(fstest.MapFS{
		"page.tmpl": {Data: []byte(`{{define "page"}}x{{end}}`)},
	}, false)
	require.ErrorContains(t, err, `"base" layout not defined`)

	_, err = NewRenderer(nil, false)
	require.Error(t, err)
}

func TestRendererReloadPicksUpEdits(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"base.tmpl": {Data: []byte(`{{define "base"}}v1 {{.Title}}{{end}}`)},
	}
	cached, err := NewRenderer(files, false)
	require.NoError(t, err)
	reloading, err := NewRenderer(files, true)
	require.NoError(t, err)

	files["base.tmpl"] = &fstest.MapFile{Data: []byte(`{{define "base"}}v2 {{.Title}}{{end}}`)}

	rr := httptest.NewRecorder()
	cached.Render(rr, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, ViewData{Title: "Home"})
	require.Equal(t, "v1 Home", rr.Body.String())

	rr = httptest.NewRecorder()
	reloading.Render(rr, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusCreated, ViewData{Title: "Home"})
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, "v2 Home", rr.Body.String())
	require.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
}

func TestRendererExecuteErrorWritesPlain500(t *testing.T) {
	t.Parallel()

	renderer, err := NewRenderer(fstest.MapFS{
		"base.tmpl": {Data: []byte(`{{define "base"}}partial {{template "missing" .}}{{end}}`)},
	}, false)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(requestctx.WithLogger(req.Context(), zap.New(core)))
	rr := httptest.NewRecorder()
	renderer.Render(rr, req, http.StatusOK, ViewData{View: ViewPage})

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "partial")
	require.Equal(t, 1, logs.FilterMessage("template execute failed").Len())
	require.Error(t, renderer.Check())
}
