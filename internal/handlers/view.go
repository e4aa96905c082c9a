package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lprior-repo/sitekit/internal/contact"
	"github.com/lprior-repo/sitekit/internal/nav"
	"github.com/lprior-repo/sitekit/internal/pages"
	"github.com/lprior-repo/sitekit/internal/platform/requestctx"
	"github.com/lprior-repo/sitekit/internal/seo"
)

const layoutTemplate = "base"

// View names understood by the base layout.
const (
	ViewPage     = "page"
	ViewContact  = "contact"
	ViewNotFound = "notfound"
	ViewError    = "error"
)

// ViewData is the model passed to the base layout.
type ViewData struct {
	View        string
	Lang        string
	Title       string
	SiteName    string
	SEO         seo.Props
	JSONLD      []template.JS
	Nav         []nav.Item
	Crumbs      []nav.Crumb
	Page        pages.Page
	Contact     *ContactView
	RequestPath string
	RequestID   string
	Year        int
}

// ContactView is the contact form as rendered.
type ContactView struct {
	State      contact.State
	Fields     []ContactFieldView
	Notice     string
	Ack        *contact.SubmissionResult
	ErrorCount int
}

// ContactFieldView is one rendered input.
type ContactFieldView struct {
	Name         string
	Label        string
	Type         string
	Autocomplete string
	Value        string
	Multiline    bool
	Errors       []string
}

// Renderer executes the base layout over templates read from an fs.FS.
type Renderer struct {
	fsys   fs.FS
	reload bool

	mu   sync.RWMutex
	tmpl *template.Template
}

// NewRenderer parses every *.tmpl file in fsys. With reload set, templates are
// parsed again on each render so edits show without a restart.
func NewRenderer(fsys fs.FS, reload bool) (*Renderer, error) {
	if fsys == nil {
		return nil, errors.New("renderer: template filesystem is required")
	}
	tmpl, err := parseTemplates(fsys)
	if err != nil {
		return nil, err
	}
	return &Renderer{fsys: fsys, reload: reload, tmpl: tmpl}, nil
}

func parseTemplates(fsys fs.FS) (*template.Template, error) {
	funcMap := template.FuncMap{
		"rfc3339": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	}
	tmpl, err := template.New("_root").Funcs(funcMap).ParseFS(fsys, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if tmpl.Lookup(layoutTemplate) == nil {
		return nil, fmt.Errorf("parse templates: %q layout not defined", layoutTemplate)
	}
	return tmpl, nil
}

func (v *Renderer) template() (*template.Template, error) {
	if v.reload {
		tmpl, err := parseTemplates(v.fsys)
		if err != nil {
			return nil, err
		}
		v.mu.Lock()
		v.tmpl = tmpl
		v.mu.Unlock()
		return tmpl, nil
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.tmpl, nil
}

// Check executes the layout with an empty model. It backs the readiness probe.
func (v *Renderer) Check() error {
	tmpl, err := v.template()
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(&bytes.Buffer{}, layoutTemplate, ViewData{View: ViewPage})
}

// Render executes the layout into a buffer and writes it with status. Failures
// produce a plain 500 so a half-written page never reaches the client.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, data ViewData) {
	logger := requestctx.Logger(r.Context())
	tmpl, err := v.template()
	if err != nil {
		logger.Error("template parse failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutTemplate, data); err != nil {
		logger.Error("template execute failed", zap.String("view", data.View), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Debug("write response", zap.Error(err))
	}
}
