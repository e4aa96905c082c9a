package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lprior-repo/sitekit/internal/contact"
	"github.com/lprior-repo/sitekit/internal/nav"
	"github.com/lprior-repo/sitekit/internal/platform/httpx"
	"github.com/lprior-repo/sitekit/internal/platform/requestctx"
	"github.com/lprior-repo/sitekit/internal/platform/textutil"
	"github.com/lprior-repo/sitekit/internal/result"
	"github.com/lprior-repo/sitekit/internal/seo"
	"github.com/lprior-repo/sitekit/internal/validation"
)

// APIDeps bundles collaborators for the JSON surface.
type APIDeps struct {
	Submitter *contact.Submitter
	SEO       seo.Builder
	Throttle  *ContactThrottle
}

// APIHandlers serves the JSON endpoints mounted under /api.
type APIHandlers struct {
	submitter *contact.Submitter
	seo       seo.Builder
	throttle  *ContactThrottle
}

// NewAPIHandlers validates deps and constructs APIHandlers.
func NewAPIHandlers(deps APIDeps) (*APIHandlers, error) {
	if deps.Submitter == nil {
		return nil, errors.New("api handlers: contact submitter is required")
	}
	return &APIHandlers{
		submitter: deps.Submitter,
		seo:       deps.SEO,
		throttle:  deps.Throttle,
	}, nil
}

// Routes registers the API routes relative to the /api mount.
func (h *APIHandlers) Routes(r chi.Router) {
	r.Post("/contact", h.SubmitContact)
	r.Get("/seo", h.SEOProps)
	r.Get("/nav", h.Navigation)
}

type contactResponse struct {
	State      contact.State             `json:"state"`
	Validation *validation.Result        `json:"validation,omitempty"`
	Result     *contact.SubmissionResult `json:"result,omitempty"`
}

// SubmitContact accepts {"name","email","message"} and replies with the
// validation errors (422), the failed delivery (502) or the acknowledgement (200).
func (h *APIHandlers) SubmitContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	decoded := decodeContactForm(w, r)
	form, ok := decoded.Value()
	if !ok {
		apiErr, _ := decoded.Error()
		httpx.WriteError(ctx, w, apiErr)
		return
	}

	if ok, wait := h.throttle.Allow(requestctx.ClientIP(ctx)); !ok {
		w.Header().Set("Retry-After", retryAfterSeconds(wait))
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many contact submissions", http.StatusTooManyRequests))
		return
	}

	out := h.submitter.Submit(ctx, form)
	resp := contactResponse{State: out.State, Result: out.Result}
	status := http.StatusOK
	switch out.State {
	case contact.StateInvalid:
		status = http.StatusUnprocessableEntity
		resp.Validation = &out.Validation
	case contact.StateFailed:
		status = http.StatusBadGateway
	}
	httpx.WriteJSON(ctx, w, status, resp)
}

func decodeContactForm(w http.ResponseWriter, r *http.Request) result.Result[contact.Form, httpx.Error] {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	var form contact.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		return result.Failure[contact.Form](
			httpx.NewError("invalid_json", "request body must be a JSON object with name, email and message", http.StatusBadRequest),
		)
	}
	return result.Success[contact.Form, httpx.Error](form)
}

// SEOProps generates page metadata from query parameters. title and
// description are required; keywords, ogTitle, ogDescription, ogImage and
// canonicalUrl are optional overrides.
func (h *APIHandlers) SEOProps(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	values := make(map[string]string, len(query))
	for key := range query {
		values[key] = query.Get(key)
	}
	values = textutil.NormalizeStringMap(values)

	checked := validation.Combine(
		validation.Required(values["title"], "Title"),
		validation.Required(values["description"], "Description"),
	)
	props := result.Map(validation.ToResult(checked, values), func(v map[string]string) seo.Props {
		return h.seo.Generate(v["title"], v["description"], seo.OptionsFromMap(v))
	})

	if p, ok := props.Value(); ok {
		httpx.WriteJSON(r.Context(), w, http.StatusOK, p)
		return
	}
	errs, _ := props.Error()
	httpx.WriteError(r.Context(), w,
		httpx.NewError("invalid_request", "title and description are required", http.StatusUnprocessableEntity).
			WithDetails(map[string]any{"errors": errs}),
	)
}

type navResponse struct {
	Path        string      `json:"path"`
	Items       []nav.Item  `json:"items"`
	Breadcrumbs []nav.Crumb `json:"breadcrumbs"`
}

// Navigation returns the main menu and breadcrumb trail for ?path=, default "/".
func (h *APIHandlers) Navigation(w http.ResponseWriter, r *http.Request) {
	p := textutil.FirstNonEmpty(r.URL.Query().Get("path"), "/")
	httpx.WriteJSON(r.Context(), w, http.StatusOK, navResponse{
		Path:        p,
		Items:       nav.Build(p),
		Breadcrumbs: nav.Breadcrumbs(p),
	})
}
