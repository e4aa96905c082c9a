// Package seo derives page titles and social preview metadata.
package seo

import (
	"net/url"
	"strings"
)

const (
	// DefaultSiteName is used when no site name is configured.
	DefaultSiteName = "Sitekit"
	// DefaultKeywords is applied when a page does not set its own keywords.
	DefaultKeywords = "static site, go, templates, contact"
	// DefaultOGImage is the social preview image used when a page sets none.
	DefaultOGImage = "/assets/og-image.png"

	homeTitle = "Home"
)

// Props is the full metadata set for one page. CanonicalURL is omitted from
// every encoding when empty.
type Props struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Keywords      string `json:"keywords,omitempty"`
	OGTitle       string `json:"ogTitle,omitempty"`
	OGDescription string `json:"ogDescription,omitempty"`
	OGImage       string `json:"ogImage,omitempty"`
	CanonicalURL  string `json:"canonicalUrl,omitempty"`
}

// Map returns the populated keys of p. canonicalUrl appears only when set.
func (p Props) Map() map[string]string {
	m := map[string]string{
		"title":       p.Title,
		"description": p.Description,
	}
	if p.Keywords != "" {
		m["keywords"] = p.Keywords
	}
	if p.OGTitle != "" {
		m["ogTitle"] = p.OGTitle
	}
	if p.OGDescription != "" {
		m["ogDescription"] = p.OGDescription
	}
	if p.OGImage != "" {
		m["ogImage"] = p.OGImage
	}
	if p.CanonicalURL != "" {
		m["canonicalUrl"] = p.CanonicalURL
	}
	return m
}

// Options overrides parts of the generated Props. Empty fields are treated as unset.
type Options struct {
	Keywords      string `json:"keywords,omitempty" yaml:"keywords"`
	OGTitle       string `json:"ogTitle,omitempty" yaml:"og_title"`
	OGDescription string `json:"ogDescription,omitempty" yaml:"og_description"`
	OGImage       string `json:"ogImage,omitempty" yaml:"og_image"`
	CanonicalURL  string `json:"canonicalUrl,omitempty" yaml:"canonical_url"`
}

// OptionsFromMap reads options from loosely keyed input such as query strings or
// front matter. Both camelCase and snake_case keys are recognised.
func OptionsFromMap(values map[string]string) Options {
	get := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := values[k]; ok && v != "" {
				return v
			}
		}
		return ""
	}
	return Options{
		Keywords:      get("keywords"),
		OGTitle:       get("ogTitle", "og_title"),
		OGDescription: get("ogDescription", "og_description"),
		OGImage:       get("ogImage", "og_image"),
		CanonicalURL:  get("canonicalUrl", "canonical_url"),
	}
}

// MergeOptions shallow-merges sets from left to right. Later non-empty fields win.
func MergeOptions(sets ...Options) Options {
	var out Options
	for _, s := range sets {
		if s.Keywords != "" {
			out.Keywords = s.Keywords
		}
		if s.OGTitle != "" {
			out.OGTitle = s.OGTitle
		}
		if s.OGDescription != "" {
			out.OGDescription = s.OGDescription
		}
		if s.OGImage != "" {
			out.OGImage = s.OGImage
		}
		if s.CanonicalURL != "" {
			out.CanonicalURL = s.CanonicalURL
		}
	}
	return out
}

// Builder generates Props with site-wide defaults.
type Builder struct {
	SiteName string
	Keywords string
	OGImage  string
	// BaseURL, when set, turns root-relative canonical and image paths into absolute URLs.
	BaseURL string
}

// Default is the Builder used by the package-level helpers.
var Default = Builder{
	SiteName: DefaultSiteName,
	Keywords: DefaultKeywords,
	OGImage:  DefaultOGImage,
}

// PageTitle returns siteName for the home page and "{pageTitle} - {siteName}" otherwise.
func PageTitle(pageTitle, siteName string) string {
	if siteName == "" {
		siteName = DefaultSiteName
	}
	if pageTitle == homeTitle {
		return siteName
	}
	return pageTitle + " - " + siteName
}

// Generate builds Props with the package defaults.
func Generate(title, description string, opts Options) Props {
	return Default.Generate(title, description, opts)
}

// PageTitle formats pageTitle with the builder's site name.
func (b Builder) PageTitle(pageTitle string) string {
	return PageTitle(pageTitle, b.SiteName)
}

// Generate builds Props for a page, filling unset options from the builder defaults.
func (b Builder) Generate(title, description string, opts Options) Props {
	p := Props{
		Title:         title,
		Description:   description,
		Keywords:      firstNonEmpty(opts.Keywords, b.Keywords, DefaultKeywords),
		OGTitle:       firstNonEmpty(opts.OGTitle, b.PageTitle(title)),
		OGDescription: firstNonEmpty(opts.OGDescription, description),
		OGImage:       b.absolute(firstNonEmpty(opts.OGImage, b.OGImage, DefaultOGImage)),
	}
	if opts.CanonicalURL != "" {
		p.CanonicalURL = b.absolute(opts.CanonicalURL)
	}
	return p
}

// CanonicalFor returns the absolute URL of path, or "" when no base URL is configured.
func (b Builder) CanonicalFor(path string) string {
	if strings.TrimSpace(b.BaseURL) == "" {
		return ""
	}
	return b.absolute(path)
}

func (b Builder) absolute(ref string) string {
	base := strings.TrimSpace(b.BaseURL)
	if base == "" || !strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "//") {
		return ref
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ref
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return u.ResolveReference(rel).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
