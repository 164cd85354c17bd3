package frontend

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

var (
	scriptOpen     = regexp.MustCompile(`<script([^>]*)>`)
	stylesheetLink = regexp.MustCompile(`<link([^>]*rel=["']stylesheet["'][^>]*)>`)
)

type indexData struct {
	Nonce string
}

// LoadIndexTemplate parses index.html from dist with a nonce placeholder on
// every script and stylesheet tag.
func LoadIndexTemplate(dist fs.FS) (*template.Template, error) {
	raw, err := fs.ReadFile(dist, "index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to read index.html: %w", err)
	}

	tmpl, err := template.New("index").Parse(processHTMLForNonce(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse index.html: %w", err)
	}
	return tmpl, nil
}

func processHTMLForNonce(html string) string {
	html = scriptOpen.ReplaceAllString(html, `<script nonce="{{.Nonce}}"$1>`)
	return stylesheetLink.ReplaceAllString(html, `<link nonce="{{.Nonce}}"$1>`)
}

// RenderIndex writes the page for one request. The page is never cached since
// the nonce changes each time.
func RenderIndex(c *gin.Context, tmpl *template.Template, nonce string) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, indexData{Nonce: nonce}); err != nil {
		return fmt.Errorf("failed to render index.html: %w", err)
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	return nil
}
