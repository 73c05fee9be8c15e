package view

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed templates/*.md
var templates embed.FS

// MaxScatterRows caps the frontier table in markdown output.
const MaxScatterRows = 20

var funcs = template.FuncMap{
	"head": func(pts []PointView) []PointView {
		if len(pts) > MaxScatterRows {
			return pts[:MaxScatterRows]
		}
		return pts
	},
	"more": func(pts []PointView) int {
		if len(pts) > MaxScatterRows {
			return len(pts) - MaxScatterRows
		}
		return 0
	},
}

// Markdown renders v as a markdown document.
func Markdown(v DashboardView) (string, error) {
	partials := map[string]string{
		"section_header": "templates/section_header.md",
		"allocation":     "templates/allocation.md",
		"forecast":       "templates/forecast.md",
		"risk":           "templates/risk.md",
		"frontier":       "templates/frontier.md",
	}
	return renderTemplate("dashboard", "templates/dashboard.md", partials, v)
}

func renderTemplate(templateName, mainFile string, partials map[string]string, data any) (string, error) {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return "", fmt.Errorf("read main template %q: %w", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return "", fmt.Errorf("parse main template %q: %w", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return "", fmt.Errorf("read partial %q: %w", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return "", fmt.Errorf("parse partial %q for %q: %w", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return "", fmt.Errorf("execute template %q: %w", templateName, err)
	}
	return b.String(), nil
}
