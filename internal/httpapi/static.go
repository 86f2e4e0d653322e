package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// assetRefPattern matches local stylesheet and script references in
// index.html. External URLs (with a scheme) are left untouched.
var assetRefPattern = regexp.MustCompile(`(href|src)="([^":]+\.(?:css|js))"`)

// mountStatic registers the web-app routes. Assets are served with
// no-cache headers; index.html gets content-hash cache-bust params
// injected so browsers pick up redeployed assets immediately.
func (s *Server) mountStatic(r chi.Router) {
	if _, err := os.Stat(s.PublicDir); err != nil {
		log.Warn().Str("dir", s.PublicDir).Msg("public directory missing, running API-only")
		return
	}

	r.Get("/", s.serveIndex)
	r.Get("/styles.css", s.serveAsset)
	r.Get("/js/*", s.serveAsset)

	log.Info().Str("dir", s.PublicDir).Msg("serving static web app")
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	raw, err := os.ReadFile(filepath.Join(s.PublicDir, "index.html"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	html := s.injectCacheBust(string(raw))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write([]byte(html))
}

func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request) {
	rel := path.Clean(strings.TrimPrefix(r.URL.Path, "/"))
	if strings.HasPrefix(rel, "..") {
		http.NotFound(w, r)
		return
	}

	full := filepath.Join(s.PublicDir, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	switch path.Ext(rel) {
	case ".css":
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
	case ".js":
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, full)
}

// injectCacheBust appends ?v=<8 hex> to each local .css/.js reference.
// The version is derived from the asset's current content, so it
// changes exactly when the asset does.
func (s *Server) injectCacheBust(html string) string {
	return assetRefPattern.ReplaceAllStringFunc(html, func(m string) string {
		groups := assetRefPattern.FindStringSubmatch(m)
		attr, ref := groups[1], groups[2]
		return attr + `="` + ref + `?v=` + s.assetVersion(ref) + `"`
	})
}

// assetVersion returns the first 8 hex characters of the SHA-256 of
// the referenced asset, or a process-startup stamp when the asset
// cannot be read.
func (s *Server) assetVersion(ref string) string {
	rel := path.Clean(strings.TrimPrefix(ref, "/"))
	raw, err := os.ReadFile(filepath.Join(s.PublicDir, filepath.FromSlash(rel)))
	if err != nil {
		return startupStamp
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])[:8]
}

// startupStamp is the fallback cache-bust version for missing assets.
var startupStamp = func() string {
	sum := sha256.Sum256([]byte(strconv.FormatInt(time.Now().UnixNano(), 10)))
	return hex.EncodeToString(sum[:])[:8]
}()
