// Package devproxy serves a built frontend, forwarding the authentication and GraphQL paths
// to the backend so that the browser sees a single origin.
package devproxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"github.com/realworldapp/api-contract-tests/framework"
)

// ProxiedPrefixes are the path prefixes that are forwarded to the backend. Any path containing
// "graphql" is forwarded as well.
var ProxiedPrefixes = []string{"/login", "/callback", "/logout", "/checkAuth"}

const graphqlPathPart = "graphql"

type Config struct {
	// BackendURL is where proxied requests go, for instance http://localhost:3001.
	BackendURL string

	// BuildDir holds the built frontend. If empty, only the proxied paths are served.
	BuildDir string

	Logger framework.Logger
}

// NewHandler returns the dev server handler.
func NewHandler(config Config) (http.Handler, error) {
	target, err := url.Parse(config.BackendURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", config.BackendURL)
	}
	logger := config.Logger
	if logger == nil {
		logger = framework.NullLogger()
	}

	r := mux.NewRouter()
	r.MatcherFunc(isProxiedRequest).Handler(newProxy(target, logger))
	if config.BuildDir != "" {
		if info, err := os.Stat(config.BuildDir); err != nil || !info.IsDir() {
			return nil, fmt.Errorf("build directory %q does not exist", config.BuildDir)
		}
		r.PathPrefix("/").Methods(http.MethodGet, http.MethodHead).Handler(spaHandler{dir: config.BuildDir})
	}
	return r, nil
}

func isProxiedRequest(r *http.Request, _ *mux.RouteMatch) bool {
	return IsProxiedPath(r.URL.Path)
}

// IsProxiedPath reports whether requests for the path are forwarded to the backend.
func IsProxiedPath(p string) bool {
	if strings.Contains(p, graphqlPathPart) {
		return true
	}
	for _, prefix := range ProxiedPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// newProxy forwards requests unchanged except for the Host header, which is set to the
// backend's.
func newProxy(target *url.URL, logger framework.Logger) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(target)
	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		original := req.URL.Path
		director(req)
		req.Host = target.Host
		logger.Printf("[proxy] %s %s -> %s", req.Method, original, req.URL.String())
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, req *http.Request, err error) {
		logger.Printf("[proxy] error forwarding %s %s: %s", req.Method, req.URL.Path, err)
		w.WriteHeader(http.StatusBadGateway)
	}
	return proxy
}

// spaHandler serves files from dir. Requests for HTML that match no file get index.html, so
// that client-side routes survive a page reload.
type spaHandler struct {
	dir string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := filepath.Join(h.dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		http.ServeFile(w, r, name)
		return
	}
	if !acceptsHTML(r) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
}

func acceptsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}
