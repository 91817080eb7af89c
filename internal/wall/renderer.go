// Package wall renders the public movie wall and handles card flipping on a
// rendered document.
package wall

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nrw/releasewall/internal/catalog"
)

//go:embed templates/*.html
var templateFS embed.FS

// ErrNoContainer is returned when the wall container selector matches nothing.
var ErrNoContainer = errors.New("wall container not found")

// DefaultSelector is the wall container on the public page.
const DefaultSelector = "#wall"

// Renderer turns an immutable movie list into wall markup.
// It holds no per-render state and is safe for concurrent use.
type Renderer struct {
	tpl         *template.Template
	placeholder string
}

// NewRenderer parses the embedded templates. An empty placeholder falls back
// to catalog.DefaultPlaceholder.
func NewRenderer(placeholder string) (*Renderer, error) {
	if placeholder == "" {
		placeholder = catalog.DefaultPlaceholder
	}
	tpl, err := template.New("templates").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse wall templates: %w", err)
	}
	return &Renderer{tpl: tpl, placeholder: placeholder}, nil
}

// Render writes the wall content (dividers and cards) for movies.
func (r *Renderer) Render(w io.Writer, movies []catalog.Movie) error {
	if err := r.tpl.ExecuteTemplate(w, "wall", entries(movies, r.placeholder)); err != nil {
		return fmt.Errorf("failed to render wall: %w", err)
	}
	return nil
}

// RenderString is Render into a string.
func (r *Renderer) RenderString(movies []catalog.Movie) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, movies); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Page is the data of a full wall page.
type Page struct {
	Title       string
	GeneratedAt time.Time
	Movies      []catalog.Movie
}

// RenderPage writes a complete HTML document with the wall inside #wall.
func (r *Renderer) RenderPage(w io.Writer, p Page) error {
	data := struct {
		Title       string
		GeneratedAt string
		Entries     []entry
	}{
		Title:   p.Title,
		Entries: entries(p.Movies, r.placeholder),
	}
	if data.Title == "" {
		data.Title = "New Release Wall"
	}
	if !p.GeneratedAt.IsZero() {
		data.GeneratedAt = p.GeneratedAt.Format("Jan 2, 2006 15:04 MST")
	}
	if err := r.tpl.ExecuteTemplate(w, "page", data); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}

// RenderInto replaces the content of the container matched by selector with
// freshly rendered wall markup.
func (r *Renderer) RenderInto(doc *goquery.Document, selector string, movies []catalog.Movie) error {
	container := doc.Find(selector).First()
	if container.Length() == 0 {
		return fmt.Errorf("%w: %s", ErrNoContainer, selector)
	}
	html, err := r.RenderString(movies)
	if err != nil {
		return err
	}
	container.SetHtml(html)
	return nil
}
