// Package public embeds the site's templates, markdown content and static assets.
package public

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tmpl
var templates embed.FS

//go:embed content/*.md
var content embed.FS

//go:embed static/*
var static embed.FS

// TemplatesFS returns the template files rooted at the templates directory.
func TemplatesFS() (fs.FS, error) {
	return fs.Sub(templates, "templates")
}

// ContentFS returns the markdown pages. Files live under "content/".
func ContentFS() fs.FS {
	return content
}

// StaticFS returns the static assets rooted at the static directory.
func StaticFS() (fs.FS, error) {
	return fs.Sub(static, "static")
}
