package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lprior-repo/sitekit/internal/contact"
	"github.com/lprior-repo/sitekit/internal/nav"
	"github.com/lprior-repo/sitekit/internal/pages"
	"github.com/lprior-repo/sitekit/internal/platform/httpx"
	"github.com/lprior-repo/sitekit/internal/platform/requestctx"
	"github.com/lprior-repo/sitekit/internal/platform/textutil"
	"github.com/lprior-repo/sitekit/internal/seo"
	"github.com/lprior-repo/sitekit/internal/validation"
)

const (
	contactSlug  = "contact"
	defaultLang  = "en"
	maxFormBytes = 16 << 10

	rateLimitedNotice = "too many messages from your address, wait a minute"
	unreadableNotice  = "the form could not be read"
)

// SiteDeps bundles collaborators for the HTML surface.
type SiteDeps struct {
	Renderer  *Renderer
	Pages     *pages.Store
	SEO       seo.Builder
	Submitter *contact.Submitter
	Throttle  *ContactThrottle
	Clock     func() time.Time
	Lang      string
}

// SiteHandlers serves the HTML pages and the contact form.
type SiteHandlers struct {
	renderer  *Renderer
	pages     *pages.Store
	seo       seo.Builder
	submitter *contact.Submitter
	throttle  *ContactThrottle
	clock     func() time.Time
	lang      string
}

// NewSiteHandlers validates deps and constructs SiteHandlers.
func NewSiteHandlers(deps SiteDeps) (*SiteHandlers, error) {
	switch {
	case deps.Renderer == nil:
		return nil, errors.New("site handlers: renderer is required")
	case deps.Pages == nil:
		return nil, errors.New("site handlers: page store is required")
	case deps.Submitter == nil:
		return nil, errors.New("site handlers: contact submitter is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &SiteHandlers{
		renderer:  deps.Renderer,
		pages:     deps.Pages,
		seo:       deps.SEO,
		submitter: deps.Submitter,
		throttle:  deps.Throttle,
		clock:     clock,
		lang:      textutil.FirstNonEmpty(deps.Lang, defaultLang),
	}, nil
}

// Routes registers the HTML routes.
func (h *SiteHandlers) Routes(r chi.Router) {
	r.Get("/", h.Page)
	r.Get("/contact", h.ContactForm)
	r.Post("/contact", h.ContactSubmit)
	r.Get("/{slug}", h.Page)
}

// Page renders the markdown page addressed by the request path.
func (h *SiteHandlers) Page(w http.ResponseWriter, r *http.Request) {
	page, err := h.pages.GetByPath(r.URL.Path)
	if errors.Is(err, pages.ErrNotFound) {
		h.NotFound(w, r)
		return
	}
	if err != nil {
		requestctx.Logger(r.Context()).Error("load page", zap.String("path", r.URL.Path), zap.Error(err))
		h.ServerError(w, r)
		return
	}
	h.renderer.Render(w, r, http.StatusOK, h.view(r, ViewPage, page))
}

// ContactForm renders an empty contact form.
func (h *SiteHandlers) ContactForm(w http.ResponseWriter, r *http.Request) {
	h.renderContact(w, r, http.StatusOK, newContactView(contact.EmptyForm(), validation.Valid(), contact.StateIdle))
}

// ContactSubmit runs a posted form through the submission pipeline and renders
// the outcome: field errors, a failure notice, or an acknowledgement with the
// form reset.
func (h *SiteHandlers) ContactSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		requestctx.Logger(ctx).Warn("parse contact form", zap.Error(err))
		view := newContactView(contact.EmptyForm(), validation.Valid(), contact.StateIdle)
		view.Notice = unreadableNotice
		h.renderContact(w, r, http.StatusBadRequest, view)
		return
	}

	form := contact.EmptyForm()
	for _, field := range contact.Fields {
		form = contact.UpdateField(form, field, r.PostForm.Get(string(field)))
	}

	if ok, wait := h.throttle.Allow(requestctx.ClientIP(ctx)); !ok {
		view := newContactView(form, validation.Valid(), contact.StateIdle)
		view.Notice = rateLimitedNotice
		w.Header().Set("Retry-After", retryAfterSeconds(wait))
		h.renderContact(w, r, http.StatusTooManyRequests, view)
		return
	}

	out := h.submitter.Submit(ctx, form)
	switch out.State {
	case contact.StateInvalid:
		h.renderContact(w, r, http.StatusUnprocessableEntity, newContactView(form, out.Validation, out.State))
	case contact.StateFailed:
		view := newContactView(form, validation.Valid(), out.State)
		view.Notice = out.Result.Error
		h.renderContact(w, r, http.StatusBadGateway, view)
	default:
		view := newContactView(contact.EmptyForm(), validation.Valid(), out.State)
		view.Ack = out.Result
		h.renderContact(w, r, http.StatusOK, view)
	}
}

// NotFound renders the 404 page, or a JSON envelope for API callers.
func (h *SiteHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.WriteError(r.Context(), w, httpx.NewError("not_found", "resource not found", http.StatusNotFound))
		return
	}
	page := pages.Page{Title: "Page not found", Description: "The page you requested does not exist."}
	h.renderer.Render(w, r, http.StatusNotFound, h.view(r, ViewNotFound, page))
}

// ServerError renders the 500 page, or a JSON envelope for API callers.
func (h *SiteHandlers) ServerError(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.WriteError(r.Context(), w, httpx.NewError("internal", "internal server error", http.StatusInternalServerError))
		return
	}
	page := pages.Page{Title: "Server error", Description: "Something went wrong."}
	h.renderer.Render(w, r, http.StatusInternalServerError, h.view(r, ViewError, page))
}

func (h *SiteHandlers) renderContact(w http.ResponseWriter, r *http.Request, status int, view *ContactView) {
	page, err := h.pages.Get(contactSlug)
	switch {
	case errors.Is(err, pages.ErrNotFound):
		page = pages.Page{Slug: contactSlug, Path: "/" + contactSlug, Title: "Contact", SchemaType: "ContactPage"}
	case err != nil:
		requestctx.Logger(r.Context()).Error("load contact page", zap.Error(err))
		h.ServerError(w, r)
		return
	}
	data := h.view(r, ViewContact, page)
	data.Contact = view
	h.renderer.Render(w, r, status, data)
}

// view assembles the layout model. Pages without a path (404, 500) get no
// canonical URL and no structured data.
func (h *SiteHandlers) view(r *http.Request, name string, page pages.Page) ViewData {
	current := textutil.FirstNonEmpty(page.Path, r.URL.Path)
	opts := page.SEO
	if page.Path != "" {
		opts = seo.MergeOptions(seo.Options{CanonicalURL: h.seo.CanonicalFor(page.Path)}, page.SEO)
	}
	props := h.seo.Generate(page.Title, page.Description, opts)
	crumbs := nav.Breadcrumbs(current)

	data := ViewData{
		View:        name,
		Lang:        h.lang,
		Title:       h.seo.PageTitle(page.Title),
		SiteName:    h.siteName(),
		SEO:         props,
		Nav:         nav.Build(current),
		Crumbs:      crumbs,
		Page:        page,
		RequestPath: r.URL.Path,
		RequestID:   middleware.GetReqID(r.Context()),
		Year:        h.clock().Year(),
	}
	if page.Path != "" {
		data.JSONLD = h.structuredData(page, props, crumbs)
	}
	return data
}

func (h *SiteHandlers) structuredData(page pages.Page, props seo.Props, crumbs []nav.Crumb) []template.JS {
	var out []template.JS
	if page.Slug == pages.HomeSlug {
		siteURL := h.seo.CanonicalFor("/")
		out = append(out,
			seo.Script(seo.WebSite(h.siteName(), siteURL)),
			seo.Script(seo.Organization(h.siteName(), siteURL, props.OGImage)),
		)
	}
	out = append(out, seo.Script(seo.WebPage(page.SchemaType, props)))
	if len(crumbs) > 1 {
		items := make([]seo.BreadcrumbItem, 0, len(crumbs))
		for _, c := range crumbs {
			items = append(items, seo.BreadcrumbItem{
				Name: c.Name,
				Item: textutil.FirstNonEmpty(h.seo.CanonicalFor(c.Path), c.Path),
			})
		}
		out = append(out, seo.Script(seo.BreadcrumbList(items)))
	}
	return out
}

func (h *SiteHandlers) siteName() string {
	return textutil.FirstNonEmpty(h.seo.SiteName, seo.DefaultSiteName)
}

func newContactView(form contact.Form, checked validation.Result, state contact.State) *ContactView {
	byField := checked.ByField()
	fields := make([]ContactFieldView, 0, len(contact.Fields))
	for _, f := range contact.Fields {
		fv := ContactFieldView{
			Name:   string(f),
			Label:  f.Label(),
			Type:   "text",
			Value:  form.Get(f),
			Errors: byField[f.Label()],
		}
		switch f {
		case contact.FieldName:
			fv.Autocomplete = "name"
		case contact.FieldEmail:
			fv.Type = "email"
			fv.Autocomplete = "email"
		case contact.FieldMessage:
			fv.Multiline = true
		}
		fields = append(fields, fv)
	}
	return &ContactView{
		State:      state,
		Fields:     fields,
		ErrorCount: len(checked.Errors),
	}
}
