// Package site renders the collection as a static HTML page by substituting
// placeholders into a template.
package site

import (
	_ "embed"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Clark-Hu/moviedb/internal/domain"
	"github.com/Clark-Hu/moviedb/internal/errs"
)

// Template placeholders.
const (
	PlaceholderTitle   = "__TEMPLATE_TITLE__"
	PlaceholderGrid    = "__TEMPLATE_MOVIE_GRID__"
	PlaceholderCSSPath = "__TEMPLATE_CSS_PATH__"
)

//go:embed assets/index_template.html
var defaultTemplate string

//go:embed assets/style.css
var defaultStylesheet []byte

// Options configures a Generator. Zero values fall back to the embedded
// template, "Movie Collection" and "style.css".
type Options struct {
	TemplatePath string
	Title        string
	CSSPath      string
}

// Generator renders movie pages.
type Generator struct {
	template string
	title    string
	cssPath  string
}

// New loads the template and returns a Generator.
func New(opts Options) (*Generator, error) {
	tmpl := defaultTemplate
	if opts.TemplatePath != "" {
		payload, err := os.ReadFile(opts.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("read site template: %w", err)
		}
		tmpl = string(payload)
	}
	if !strings.Contains(tmpl, PlaceholderGrid) {
		return nil, fmt.Errorf("site template is missing %s", PlaceholderGrid)
	}

	g := &Generator{template: tmpl, title: opts.Title, cssPath: opts.CSSPath}
	if g.title == "" {
		g.title = "Movie Collection"
	}
	if g.cssPath == "" {
		g.cssPath = "style.css"
	}
	return g, nil
}

// CSSPath is the stylesheet reference written into rendered pages.
func (g *Generator) CSSPath() string {
	return g.cssPath
}

// Stylesheet returns the embedded default stylesheet.
func (g *Generator) Stylesheet() []byte {
	return defaultStylesheet
}

// Render returns the full page. An empty collection is reported as ENOTFOUND
// instead of producing an empty page.
func (g *Generator) Render(movies []domain.Movie) (string, error) {
	if len(movies) == 0 {
		return "", errs.Errorf(errs.ENOTFOUND, "No movies in database.")
	}
	r := strings.NewReplacer(
		PlaceholderTitle, html.EscapeString(g.title),
		PlaceholderGrid, movieGrid(movies),
		PlaceholderCSSPath, html.EscapeString(g.cssPath),
	)
	return r.Replace(g.template), nil
}

// WriteFile renders the page to path. When the stylesheet reference is a
// relative path without an existing file, the embedded stylesheet is written
// next to the page.
func (g *Generator) WriteFile(path string, movies []domain.Movie) error {
	page, err := g.Render(movies)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create site directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		return fmt.Errorf("write site: %w", err)
	}

	if isLocalPath(g.cssPath) {
		cssFile := filepath.Join(dir, filepath.FromSlash(g.cssPath))
		if _, err := os.Stat(cssFile); errors.Is(err, fs.ErrNotExist) {
			if err := os.MkdirAll(filepath.Dir(cssFile), 0o755); err != nil {
				return fmt.Errorf("create stylesheet directory: %w", err)
			}
			if err := os.WriteFile(cssFile, defaultStylesheet, 0o644); err != nil {
				return fmt.Errorf("write stylesheet: %w", err)
			}
		}
	}
	return nil
}

func movieGrid(movies []domain.Movie) string {
	items := make([]string, 0, len(movies))
	for _, m := range movies {
		items = append(items, movieItem(m))
	}
	return strings.Join(items, "\n")
}

func movieItem(m domain.Movie) string {
	var b strings.Builder
	b.WriteString("        <li>\n")
	b.WriteString("            <div class=\"movie\">\n")
	b.WriteString("                <img class=\"movie-poster\" src=\"" + html.EscapeString(m.Poster) + "\" alt=\"" + html.EscapeString(m.Title) + "\"/>\n")
	b.WriteString("                <div class=\"movie-title\">" + html.EscapeString(m.Title) + "</div>\n")
	b.WriteString("                <div class=\"movie-year\">" + strconv.Itoa(m.Year) + "</div>\n")
	b.WriteString("            </div>\n")
	b.WriteString("        </li>")
	return b.String()
}

func isLocalPath(p string) bool {
	if p == "" || strings.Contains(p, "://") || strings.HasPrefix(p, "//") {
		return false
	}
	return !filepath.IsAbs(p) && !strings.HasPrefix(p, "/")
}
