package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func doJSON(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload), rr.Body.String())
	return rr, payload
}

func TestAPIContactSuccess(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	rr, body := doJSON(t, newTestSite(t, sender, testSiteOptions{}), http.MethodPost, "/api/contact",
		`{"name":"Jane","email":" jane@example.com ","message":"Hello there, this is long enough."}`)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	require.Equal(t, "success", body["state"])
	require.NotContains(t, body, "validation")

	result := body["result"].(map[string]any)
	require.Equal(t, "cs_TEST", result["id"])
	require.Equal(t, true, result["success"])
	require.Equal(t, "2025-03-14T09:30:00Z", result["timestamp"])
	require.Equal(t, "jane@example.com", result["data"].(map[string]any)["email"])
	require.NotContains(t, result, "error")
	require.Len(t, sender.forms, 1)
}

func TestAPIContactValidationErrors(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	rr, body := doJSON(t, newTestSite(t, sender, testSiteOptions{}), http.MethodPost, "/api/contact",
		`{"name":"","email":"jane@","message":"hi"}`)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Equal(t, "invalid", body["state"])
	require.NotContains(t, body, "result")

	checked := body["validation"].(map[string]any)
	require.Equal(t, false, checked["isValid"])
	errs := checked["errors"].([]any)
	require.Len(t, errs, 3)
	first := errs[0].(map[string]any)
	require.Equal(t, "Name", first["field"])
	require.Equal(t, "Name is required", first["message"])
	require.Empty(t, sender.forms)
}

func TestAPIContactDeliveryFailure(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{err: errors.New("")}
	rr, body := doJSON(t, newTestSite(t, sender, testSiteOptions{}), http.MethodPost, "/api/contact",
		`{"name":"Jane","email":"jane@example.com","message":"Hello there, this is long enough."}`)

	require.Equal(t, http.StatusBadGateway, rr.Code)
	require.Equal(t, "failed", body["state"])
	result := body["result"].(map[string]any)
	require.Equal(t, false, result["success"])
	require.Equal(t, "An unknown error occurred", result["error"])
	require.NotContains(t, result, "data")
}

func TestAPIContactRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	rr, body := doJSON(t, newTestSite(t, &recordingSender{}, testSiteOptions{}), http.MethodPost, "/api/contact", `{"name":`)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "invalid_json", body["error"])
}

func TestAPIContactRateLimited(t *testing.T) {
	t.Parallel()

	site := newTestSite(t, &recordingSender{}, testSiteOptions{
		throttle: NewContactThrottle(1, time.Minute, func() time.Time { return testNow }),
	})
	payload := `{"name":"Jane","email":"jane@example.com","message":"Hello there, this is long enough."}`

	rr, _ := doJSON(t, site, http.MethodPost, "/api/contact", payload)
	require.Equal(t, http.StatusOK, rr.Code)

	rr, body := doJSON(t, site, http.MethodPost, "/api/contact", payload)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Equal(t, "rate_limited", body["error"])
	require.Equal(t, "60", rr.Header().Get("Retry-After"))
}

func TestAPISEOProps(t *testing.T) {
	t.Parallel()

	site := newTestSite(t, &recordingSender{}, testSiteOptions{})

	rr, body := doJSON(t, site, http.MethodGet, "/api/seo?title=About&description=Who+we+are&ogImage=/img/team.png&canonicalUrl=/about", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "About", body["title"])
	require.Equal(t, "About - Sitekit", body["ogTitle"])
	require.Equal(t, "Who we are", body["ogDescription"])
	require.Equal(t, "https://example.test/img/team.png", body["ogImage"])
	require.Equal(t, "https://example.test/about", body["canonicalUrl"])

	rr, body = doJSON(t, site, http.MethodGet, "/api/seo?title=Home&description=Start", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "Sitekit", body["ogTitle"])
	require.NotContains(t, body, "canonicalUrl")

	rr, body = doJSON(t, site, http.MethodGet, "/api/seo?title=+", "")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Equal(t, "invalid_request", body["error"])
	require.Len(t, body["errors"], 2)
}

func TestAPINavigation(t *testing.T) {
	t.Parallel()

	site := newTestSite(t, &recordingSender{}, testSiteOptions{})

	rr, body := doJSON(t, site, http.MethodGet, "/api/nav?path=/about/team", "")
	require.Equal(t, http.StatusOK, rr.Code)

	items := body["items"].([]any)
	require.Len(t, items, 3)
	about := items[1].(map[string]any)
	require.Equal(t, "About", about["name"])
	require.Equal(t, true, about["current"])
	require.Equal(t, false, items[0].(map[string]any)["current"])

	crumbs := body["breadcrumbs"].([]any)
	require.Len(t, crumbs, 3)
	require.Equal(t, "Team", crumbs[2].(map[string]any)["name"])

	_, body = doJSON(t, site, http.MethodGet, "/api/nav", "")
	require.Equal(t, "/", body["path"])
	require.Equal(t, true, body["items"].([]any)[0].(map[string]any)["current"])
}

func TestAPIUnknownRouteReturnsJSON(t *testing.T) {
	t.Parallel()

	rr, body := doJSON(t, newTestSite(t, &recordingSender{}, testSiteOptions{}), http.MethodGet, "/api/unknown", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, errorNotFoundCode, body["error"])

	rr, body = doJSON(t, newTestSite(t, &recordingSender{}, testSiteOptions{}), http.MethodDelete, "/api/contact", "")
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	require.Equal(t, "method_not_allowed", body["error"])
}
