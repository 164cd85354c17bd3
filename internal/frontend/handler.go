package frontend

import (
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/ZanzyTHEbar/neuropredict/internal/errors"
	"github.com/ZanzyTHEbar/neuropredict/internal/security"
	"github.com/gin-gonic/gin"
)

// reservedPrefixes never fall back to index.html; a miss there is a JSON 404.
var reservedPrefixes = []string{"/api/", "/swagger/", "/metrics", "/stats", "/cache/", "/health"}

// NewSPAHandler creates a handler for serving the SPA with proper routing fallback
func NewSPAHandler(distFS fs.FS, indexTemplate *template.Template) gin.HandlerFunc {
	fileServer := http.FileServer(http.FS(distFS))

	return func(c *gin.Context) {
		path := c.Request.URL.Path

		for _, prefix := range reservedPrefixes {
			if strings.HasPrefix(path, prefix) {
				apperrors.Abort(c, apperrors.NewNotFoundError("route", path))
				return
			}
		}

		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.AbortWithStatus(http.StatusMethodNotAllowed)
			return
		}

		// Serve static assets directly with aggressive caching
		if strings.HasPrefix(path, "/assets/") {
			c.Header("Cache-Control", "public, max-age=31536000, immutable")
			fileServer.ServeHTTP(c.Writer, c.Request)
			return
		}

		cleanPath := strings.TrimPrefix(path, "/")
		if cleanPath != "" && cleanPath != "index.html" {
			if info, err := fs.Stat(distFS, cleanPath); err == nil && !info.IsDir() {
				c.Header("Cache-Control", "public, max-age=3600")
				fileServer.ServeHTTP(c.Writer, c.Request)
				return
			}
		}

		// Client-side routes render the templated index.
		nonce := security.GetNonce(c)
		if nonce == "" {
			slog.Warn("CSP nonce not found in context, generating new one")
			var err error
			nonce, err = security.GenerateNonce()
			if err != nil {
				apperrors.Abort(c, apperrors.NewInternalError("failed to generate nonce", err))
				return
			}
		}

		if err := RenderIndex(c, indexTemplate, nonce); err != nil {
			slog.Error("Failed to render index.html", "error", err, "path", path)
			apperrors.Abort(c, apperrors.NewInternalError("failed to render page", err))
			return
		}
	}
}

// New loads the embedded distribution and returns the SPA handler for it.
func New() (gin.HandlerFunc, error) {
	dist, err := GetDistFS()
	if err != nil {
		return nil, err
	}
	tmpl, err := LoadIndexTemplate(dist)
	if err != nil {
		return nil, err
	}
	return NewSPAHandler(dist, tmpl), nil
}
