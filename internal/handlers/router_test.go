package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lprior-repo/sitekit/internal/contact"
	"github.com/lprior-repo/sitekit/internal/pages"
	"github.com/lprior-repo/sitekit/internal/platform/observability"
	"github.com/lprior-repo/sitekit/public"
)

func TestRouterRecoversPanicsWithErrorPage(t *testing.T) {
	t.Parallel()

	templates, err := public.TemplatesFS()
	require.NoError(t, err)
	renderer, err := NewRenderer(templates, false)
	require.NoError(t, err)
	store, err := pages.NewStore(public.ContentFS())
	require.NoError(t, err)
	submitter, err := contact.NewSubmitter(contact.SubmitterDeps{Sender: &recordingSender{}})
	require.NoError(t, err)
	site, err := NewSiteHandlers(SiteDeps{Renderer: renderer, Pages: store, Submitter: submitter})
	require.NoError(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	var requestID string
	router := NewRouter(
		WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.ClientIPMiddleware,
			observability.RequestLoggerMiddleware,
			observability.RecoveryMiddleware(logger, site.ServerError),
		),
		WithSiteRoutes(func(r chi.Router) {
			r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
				requestID = middleware.GetReqID(r.Context())
				panic("template data missing")
			})
		}),
	)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)
	require.Equal(t, "Something went wrong", doc.Find("section.server-error h1").Text())
	require.Contains(t, doc.Find("section.server-error .meta").Text(), requestID)

	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	completed := logs.FilterMessage("request completed").All()
	require.Len(t, completed, 1)
	require.Equal(t, zapcore.ErrorLevel, completed[0].Level)
}

func TestRouterHealthEndpoints(t *testing.T) {
	t.Parallel()

	router := NewRouter()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Header().Get("Content-Type"), "application/json")
}
