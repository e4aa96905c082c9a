// Package pages loads markdown content pages with YAML front matter from an fs.FS
// and renders them to sanitised HTML.
package pages

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"

	"github.com/lprior-repo/sitekit/internal/platform/textutil"
	"github.com/lprior-repo/sitekit/internal/seo"
)

// ErrNotFound is returned when no page exists for a slug.
var ErrNotFound = errors.New("pages: not found")

// HomeSlug is the slug served at "/".
const HomeSlug = "home"

const defaultCacheTTL = 5 * time.Minute

// Page is a rendered content page.
type Page struct {
	Slug        string
	Path        string
	Title       string
	Description string
	NavTitle    string
	// SchemaType is the schema.org WebPage subtype used for JSON-LD.
	SchemaType string
	SEO        seo.Options
	Body       template.HTML
	UpdatedAt  time.Time
}

type frontMatter struct {
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	NavTitle    string            `yaml:"nav_title"`
	SchemaType  string            `yaml:"schema_type"`
	UpdatedAt   string            `yaml:"updated_at"`
	SEO         seo.Options       `yaml:"seo"`
	Meta        map[string]string `yaml:"meta"`
}

// Store reads pages from dir inside fsys and caches the rendered result.
type Store struct {
	fsys   fs.FS
	dir    string
	md     goldmark.Markdown
	policy *bluemonday.Policy
	ttl    time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	items map[string]cacheEntry
}

type cacheEntry struct {
	page    Page
	expires time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithDir sets the directory inside the FS that holds the markdown files.
func WithDir(dir string) Option {
	return func(s *Store) {
		s.dir = strings.Trim(strings.TrimSpace(dir), "/")
	}
}

// WithCacheTTL overrides how long rendered pages are cached. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl < 0 {
			ttl = 0
		}
		s.ttl = ttl
	}
}

// WithClock overrides the time source used for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore constructs a Store over fsys.
func NewStore(fsys fs.FS, opts ...Option) (*Store, error) {
	if fsys == nil {
		return nil, errors.New("pages: filesystem is required")
	}
	s := &Store{
		fsys: fsys,
		dir:  "content",
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Typographer),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		policy: newContentPolicy(),
		ttl:    defaultCacheTTL,
		now:    time.Now,
		items:  map[string]cacheEntry{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func newContentPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("figure", "figcaption")
	policy.AllowAttrs("class").OnElements("figure", "figcaption", "p", "span", "code")
	policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	policy.AllowAttrs("loading").OnElements("img")
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// Get returns the page for slug. Slugs are case-insensitive.
func (s *Store) Get(slug string) (Page, error) {
	slug = sanitizeSlug(slug)
	if slug == "" {
		return Page{}, ErrNotFound
	}
	if page, ok := s.cached(slug); ok {
		return page, nil
	}
	page, err := s.read(slug)
	if err != nil {
		return Page{}, err
	}
	s.store(slug, page)
	return page, nil
}

// GetByPath resolves a request path such as "/" or "/about" to its page.
func (s *Store) GetByPath(requestPath string) (Page, error) {
	return s.Get(SlugForPath(requestPath))
}

// Slugs lists the available page slugs in lexical order.
func (s *Store) Slugs() ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, s.dirOrRoot())
	if err != nil {
		return nil, fmt.Errorf("pages: list %s: %w", s.dirOrRoot(), err)
	}
	var slugs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || path.Ext(name) != ".md" {
			continue
		}
		slugs = append(slugs, strings.TrimSuffix(name, ".md"))
	}
	sort.Strings(slugs)
	return slugs, nil
}

// SlugForPath maps "/" to HomeSlug and "/about/" to "about".
func SlugForPath(requestPath string) string {
	p := strings.Trim(path.Clean("/"+strings.TrimSpace(requestPath)), "/")
	if p == "" {
		return HomeSlug
	}
	return p
}

func pathForSlug(slug string) string {
	if slug == HomeSlug {
		return "/"
	}
	return "/" + slug
}

func (s *Store) dirOrRoot() string {
	if s.dir == "" {
		return "."
	}
	return s.dir
}

func (s *Store) read(slug string) (Page, error) {
	file := path.Join(s.dirOrRoot(), slug+".md")
	data, err := fs.ReadFile(s.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Page{}, ErrNotFound
		}
		return Page{}, fmt.Errorf("pages: read %s: %w", file, err)
	}

	fm, body := splitFrontMatter(string(data))
	front := frontMatter{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Page{}, fmt.Errorf("pages: parse front matter %s: %w", file, err)
		}
	}

	var buf bytes.Buffer
	if err := s.md.Convert([]byte(body), &buf); err != nil {
		return Page{}, fmt.Errorf("pages: render %s: %w", file, err)
	}

	title := strings.TrimSpace(front.Title)
	if title == "" {
		title = textutil.TitleFromSlug(slug)
	}
	page := Page{
		Slug:        slug,
		Path:        pathForSlug(slug),
		Title:       title,
		Description: strings.TrimSpace(front.Description),
		NavTitle:    textutil.FirstNonEmpty(strings.TrimSpace(front.NavTitle), title),
		SchemaType:  strings.TrimSpace(front.SchemaType),
		SEO:         seo.MergeOptions(seo.OptionsFromMap(textutil.NormalizeStringMap(front.Meta)), trimOptions(front.SEO)),
		Body:        template.HTML(s.policy.SanitizeBytes(buf.Bytes())),
		UpdatedAt:   parseDate(front.UpdatedAt),
	}
	if page.UpdatedAt.IsZero() {
		if info, err := fs.Stat(s.fsys, file); err == nil {
			page.UpdatedAt = info.ModTime()
		}
	}
	return page, nil
}

func (s *Store) cached(slug string) (Page, bool) {
	if s.ttl == 0 {
		return Page{}, false
	}
	s.mu.RLock()
	entry, ok := s.items[slug]
	s.mu.RUnlock()
	if !ok || s.now().After(entry.expires) {
		return Page{}, false
	}
	return entry.page, true
}

func (s *Store) store(slug string, page Page) {
	if s.ttl == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[slug] = cacheEntry{page: page, expires: s.now().Add(s.ttl)}
}

func trimOptions(o seo.Options) seo.Options {
	return seo.Options{
		Keywords:      strings.TrimSpace(o.Keywords),
		OGTitle:       strings.TrimSpace(o.OGTitle),
		OGDescription: strings.TrimSpace(o.OGDescription),
		OGImage:       strings.TrimSpace(o.OGImage),
		CanonicalURL:  strings.TrimSpace(o.CanonicalURL),
	}
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimPrefix(input, "\ufeff")
	input = strings.ReplaceAll(input, "\r\n", "\n")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n")
		}
	}
	return "", input
}

func parseDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006/01/02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func sanitizeSlug(slug string) string {
	slug = strings.Trim(strings.TrimSpace(strings.ToLower(slug)), "/")
	if slug == "" || strings.Contains(slug, "..") || strings.ContainsAny(slug, `/\`) {
		return ""
	}
	return slug
}
