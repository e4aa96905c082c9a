package seo

import (
	"encoding/json"
	"html/template"
)

const schemaContext = "https://schema.org"

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Script renders v as the body of an application/ld+json script tag.
func Script(v any) template.JS {
	return template.JS(JSON(v))
}

// Organization returns a minimal Organization schema.
func Organization(name, siteURL, logoURL string) map[string]any {
	m := map[string]any{
		"@context": schemaContext,
		"@type":    "Organization",
		"name":     name,
	}
	if siteURL != "" {
		m["url"] = siteURL
	}
	if logoURL != "" {
		m["logo"] = logoURL
	}
	return m
}

// WebSite returns a minimal WebSite schema.
func WebSite(name, siteURL string) map[string]any {
	m := map[string]any{
		"@context": schemaContext,
		"@type":    "WebSite",
		"name":     name,
	}
	if siteURL != "" {
		m["url"] = siteURL
	}
	return m
}

// WebPage describes a single page. pageType is a schema.org WebPage subtype such
// as "AboutPage" or "ContactPage"; empty means "WebPage".
func WebPage(pageType string, p Props) map[string]any {
	if pageType == "" {
		pageType = "WebPage"
	}
	m := map[string]any{
		"@context":    schemaContext,
		"@type":       pageType,
		"name":        p.Title,
		"description": p.Description,
	}
	if p.CanonicalURL != "" {
		m["url"] = p.CanonicalURL
	}
	return m
}

// BreadcrumbItem maps a display name to an absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds a schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		entry := map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
		}
		if it.Item != "" {
			entry["item"] = it.Item
		}
		el = append(el, entry)
	}
	return map[string]any{
		"@context":        schemaContext,
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}
