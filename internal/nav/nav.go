// Package nav derives the site navigation and breadcrumb trail for a request path.
package nav

import (
	"path"
	"strings"

	"github.com/lprior-repo/sitekit/internal/platform/textutil"
)

// Item is a navigation entry. Current is derived from the request path by Build.
type Item struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Current bool   `json:"current"`
}

// Crumb is one breadcrumb entry.
type Crumb struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Current bool   `json:"current"`
}

// Main is the primary navigation definition, in display order.
var Main = []Item{
	{Name: "Home", Path: "/"},
	{Name: "About", Path: "/about"},
	{Name: "Contact", Path: "/contact"},
}

// Build returns a fresh copy of Main with Current set for currentPath.
func Build(currentPath string) []Item {
	return BuildFrom(Main, currentPath)
}

// BuildFrom is Build over an arbitrary definition list.
func BuildFrom(defs []Item, currentPath string) []Item {
	currentPath = normalize(currentPath)
	items := make([]Item, 0, len(defs))
	for _, it := range defs {
		items = append(items, Item{
			Name:    it.Name,
			Path:    it.Path,
			Current: isActive(it.Path, currentPath),
		})
	}
	return items
}

// Current returns the active item for currentPath, if any.
func Current(currentPath string) (Item, bool) {
	for _, it := range Build(currentPath) {
		if it.Current {
			return it, true
		}
	}
	return Item{}, false
}

func isActive(itemPath, currentPath string) bool {
	if itemPath == "/" {
		return currentPath == "/"
	}
	// exact or prefix boundary: "/about" or "/about/..."
	return currentPath == itemPath || strings.HasPrefix(currentPath, itemPath+"/")
}

// Breadcrumbs builds the trail from Home to currentPath. Top-level sections use
// their navigation name; deeper segments are title-cased from the slug.
func Breadcrumbs(currentPath string) []Crumb {
	currentPath = normalize(currentPath)
	crumbs := []Crumb{{Name: Main[0].Name, Path: "/", Current: currentPath == "/"}}
	if currentPath == "/" {
		return crumbs
	}

	parts := strings.Split(strings.TrimPrefix(currentPath, "/"), "/")
	href := ""
	for i, seg := range parts {
		href += "/" + seg
		name := ""
		if i == 0 {
			name = nameFor(href)
		}
		if name == "" {
			name = textutil.TitleFromSlug(seg)
		}
		crumbs = append(crumbs, Crumb{Name: name, Path: href, Current: i == len(parts)-1})
	}
	return crumbs
}

func nameFor(p string) string {
	for _, it := range Main {
		if it.Path == p {
			return it.Name
		}
	}
	return ""
}

func normalize(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	clean := path.Clean(p)
	if clean == "." {
		return "/"
	}
	return clean
}
