package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ServeStatic mounts a web build directory at / behind the API routes.
func (s *Server) ServeStatic(dir string) {
	fileServer(s.router, "/", http.Dir(dir))
}

// fileServer sets up a http.FileServer handler to serve static files from
// a http.FileSystem.
func fileServer(r chi.Router, path string, root http.FileSystem) {
	if strings.ContainsAny(path, "{}*") {
		panic("fileServer does not permit URL parameters.")
	}

	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", http.StatusMovedPermanently).ServeHTTP)
		path += "/"
	}
	path += "*"

	r.Get(path, func(w http.ResponseWriter, req *http.Request) {
		rctx := chi.RouteContext(req.Context())
		pathPrefix := strings.TrimSuffix(rctx.RoutePattern(), "/*")
		fs := http.StripPrefix(pathPrefix, http.FileServer(root))
		fs.ServeHTTP(w, req)
	})
}
