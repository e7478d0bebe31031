// Package site serves the embedded landing page.
package site

import (
	"context"
	"errors"
	"net/http"
)

// Error constants
var (
	ErrGenerate = errors.New("landing site generation failed")
	ErrServe    = errors.New("landing site serve failed")
)

// Register attaches the embedded landing page routes to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	// Serve the embedded landing page at root /
	files := http.FileServer(FS())
	mux.Handle("/", files)
}

// RootHandler handles root path requests
type RootHandler struct{}

// NewRootHandler creates a new root handler
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// HandleRoot handles GET / requests and serves the embedded landing page
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	files := http.FileServer(FS())
	files.ServeHTTP(w, r)
}
