package middleware

import (
	"net/http"
	"os"
	"path/filepath"
)

const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 280"><rect width="200" height="280" fill="#1a1a2e"/><rect x="20" y="20" width="160" height="200" rx="8" fill="#16213e"/><text x="100" y="125" text-anchor="middle" font-family="Arial" font-size="40" fill="#e94560">?</text><text x="100" y="255" text-anchor="middle" font-family="Arial" font-size="14" fill="#888">WEBTOON</text></svg>`

// StaticFileServer serves title cover images, falling back to a
// placeholder when no cover exists.
func StaticFileServer(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean(r.URL.Path))

		if _, err := os.Stat(path); err == nil {
			w.Header().Set("Cache-Control", "public, max-age=2592000")
			http.ServeFile(w, r, path)
			return
		}

		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Write([]byte(placeholderSVG))
	})
}
