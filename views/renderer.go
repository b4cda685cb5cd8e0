package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

func (r *Renderer) Page(w io.Writer, v PageView) error {
	return r.tmpl.ExecuteTemplate(w, "page", v)
}

func (r *Renderer) Gallery(w io.Writer, v GalleryView) error {
	return r.tmpl.ExecuteTemplate(w, "gallery", v)
}

func (r *Renderer) Sheet(w io.Writer, v SheetView) error {
	return r.tmpl.ExecuteTemplate(w, "sheet", v)
}

// GalleryHTML renders the gallery fragment to a string for streaming.
func (r *Renderer) GalleryHTML(v GalleryView) (string, error) {
	var buf bytes.Buffer
	if err := r.Gallery(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}
