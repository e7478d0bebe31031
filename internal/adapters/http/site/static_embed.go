package site

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/**
var staticFS embed.FS

// FS returns an http.FileSystem for the embedded landing page.
func FS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// Should never happen once the assets are embedded.
		// Expose an empty FS on error.
		return http.FS(staticFS)
	}
	return http.FS(sub)
}
