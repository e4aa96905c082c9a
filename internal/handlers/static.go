package handlers

import (
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"
)

// StaticHandler serves files from fsys. Directory listings are refused and
// responses carry a public max-age when maxAge is positive.
func StaticHandler(fsys fs.FS, maxAge time.Duration) http.Handler {
	files := http.FileServerFS(fsys)
	cacheControl := "no-cache"
	if maxAge > 0 {
		cacheControl = fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds()))
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", cacheControl)
		files.ServeHTTP(w, r)
	})
}
