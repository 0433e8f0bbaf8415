// Package report renders a repository analysis as a downloadable document.
package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	texttpl "text/template"
	"time"

	"github.com/naka-gawa/github-dashboard/internal/usecase"
)

// Format is a report document type.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatMarkdown, FormatHTML:
		return f, nil
	}
	return "", fmt.Errorf("unknown report format %q (want markdown or html)", s)
}

// ContentType is the media type a report of this format is served as.
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}

// Extension is the file extension for a report of this format.
func (f Format) Extension() string {
	if f == FormatHTML {
		return ".html"
	}
	return ".md"
}

//go:embed templates/*
var templateFS embed.FS

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`,
	"[", `\[`, "]", `\]`, "|", `\|`, "<", "&lt;", ">", "&gt;",
)

var funcs = map[string]any{
	"md":  markdownEscaper.Replace,
	"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"seconds": func(s float64) string {
		return time.Duration(s * float64(time.Second)).Round(time.Second).String()
	},
	"date": func(t time.Time) string { return t.Format("2006-01-02") },
}

// Templates holds the parsed report templates.
type Templates struct {
	Markdown *texttpl.Template
	HTML     *template.Template
}

// LoadTemplates parses the embedded report templates.
func LoadTemplates() (*Templates, error) {
	read := func(name string) (string, error) {
		b, err := templateFS.ReadFile("templates/" + name)
		return string(b), err
	}
	md, err := read("analysis.md.tmpl")
	if err != nil {
		return nil, err
	}
	page, err := read("analysis.html.tmpl")
	if err != nil {
		return nil, err
	}

	mdT, err := texttpl.New("analysis_md").Funcs(funcs).Parse(md)
	if err != nil {
		return nil, fmt.Errorf("failed to parse markdown report template: %w", err)
	}
	htmlT, err := template.New("analysis_html").Funcs(funcs).Parse(page)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html report template: %w", err)
	}
	return &Templates{Markdown: mdT, HTML: htmlT}, nil
}

// Vars is what a report template sees.
type Vars struct {
	*usecase.Analysis
	GeneratedAt string
}

// Render writes the analysis to w as a report of format f.
func (t *Templates) Render(w io.Writer, f Format, a *usecase.Analysis, generatedAt time.Time) error {
	vars := Vars{Analysis: a, GeneratedAt: generatedAt.UTC().Format(time.RFC3339)}
	var err error
	switch f {
	case FormatMarkdown:
		err = t.Markdown.Execute(w, vars)
	case FormatHTML:
		err = t.HTML.Execute(w, vars)
	default:
		return fmt.Errorf("unknown report format %q", f)
	}
	if err != nil {
		return fmt.Errorf("failed to render %s report: %w", f, err)
	}
	return nil
}

// Filename names the downloaded report of one repository.
func Filename(repository string, f Format) string {
	return "contribution-report-" + strings.ReplaceAll(repository, "/", "-") + f.Extension()
}
