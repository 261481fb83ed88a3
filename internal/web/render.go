package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/yuin/goldmark"

	"github.com/hpungsan/spinit/internal/errors"
	"github.com/hpungsan/spinit/internal/spinner"
	"github.com/hpungsan/spinit/internal/wheel"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item: "spinners", "help"
}

// SplashPageData is the template data for the splash screen.
type SplashPageData struct {
	PageData
	Icon string
}

// ListPageData is the template data for the spinner grid.
type ListPageData struct {
	PageData
	Spinners    []spinner.Spinner
	DefaultIcon string
	MaxOptions  int
}

// DetailPageData is the template data for the wheel screen.
type DetailPageData struct {
	PageData
	Spinner  spinner.Spinner
	Options  []spinner.Option
	Geometry wheel.Geometry
	Snapshot wheel.Snapshot
	// Markers pairs each option with its position on the wheel.
	Markers    []Marker
	MaxOptions int
	AtCapacity bool
	DurationMs int64
}

// Marker is one option placed on the wheel.
type Marker struct {
	Option   spinner.Option
	Position wheel.Position
}

// HelpPageData is the template data for the help page.
type HelpPageData struct {
	PageData
	Body template.HTML
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Heading    string
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	log       *slog.Logger
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	funcMap := template.FuncMap{
		"add":    func(a, b int) int { return a + b },
		"plural": func(n int, word string) string { return english.Plural(n, word, "") },
		"comma":  func(n int) string { return humanize.Comma(int64(n)) },
		"fmtDeg": func(f float64) string { return humanize.FtoaWithDigits(f, 2) },
	}

	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"splash": "splash.html",
		"list":   "list.html",
		"detail": "detail.html",
		"help":   "help.html",
		"error":  "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
		log:       logger,
	}
}

// renderPage renders a named page template with HTTP 200.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given status.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.log.Error("template not found", "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.log.Error("template execution error", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error as JSON or as the error page, depending on
// what the client accepts.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	sErr := errors.As(err)
	if sErr.Status >= 500 {
		r.log.Error("request failed", "path", req.URL.Path, "error", err)
	}

	if wantsJSON(req) {
		renderJSON(w, sErr.Status, map[string]any{
			"error": map[string]any{
				"code":    string(sErr.Code),
				"title":   sErr.Title,
				"message": sErr.Message,
				"status":  sErr.Status,
			},
		})
		return
	}

	heading := sErr.Title
	if heading == "" {
		heading = "Error"
	}
	r.renderPageStatus(w, sErr.Status, "error", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", sErr.Status),
			Version: r.version,
		},
		StatusCode: sErr.Status,
		Heading:    heading,
		Message:    sErr.Message,
	})
}

// wantsJSON reports whether the client asked for a JSON response.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts markdown text to HTML using goldmark.
func renderMarkdown(md []byte) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert(md, &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(string(md)))
	}
	return template.HTML(buf.String())
}
