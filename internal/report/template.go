package report

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"nosecounter/internal/apperr"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

const defaultTemplate = "templates/report.html.tmpl"

var funcs = template.FuncMap{
	"base": path.Base,
	// chartRef is rebound per page by RenderTemplate.
	"chartRef": func(ref string) string { return ref },
}

// LoadTemplate parses the template at file, or the embedded default page when file is empty.
func LoadTemplate(file string) (*template.Template, error) {
	if file == "" {
		t, err := template.New(path.Base(defaultTemplate)).Funcs(funcs).ParseFS(templateFS, defaultTemplate)
		if err != nil {
			return nil, apperr.WithPath(apperr.KindTemplate, "parse template", defaultTemplate, err)
		}
		return t, nil
	}

	t, err := template.New(filepath.Base(file)).Funcs(funcs).ParseFiles(file)
	if err != nil {
		return nil, apperr.WithPath(apperr.KindTemplate, "parse template", file, err)
	}
	return t, nil
}

// RenderTemplate executes the template at file (or the default page) with the report.
// Chart references are rewritten relative to pageDir, the directory the page is served from.
func RenderTemplate(w io.Writer, file, pageDir string, r *Report) error {
	t, err := LoadTemplate(file)
	if err != nil {
		return err
	}
	t.Funcs(template.FuncMap{
		"chartRef": func(ref string) string { return relativeRef(pageDir, ref) },
	})

	var buf bytes.Buffer
	if err := t.Execute(&buf, r); err != nil {
		return apperr.WithPath(apperr.KindTemplate, "execute template", file, err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// WriteHTML renders the report page to out.
func WriteHTML(out, file string, r *Report) error {
	var buf bytes.Buffer
	if err := RenderTemplate(&buf, file, filepath.Dir(out), r); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return apperr.WithPath(apperr.KindIO, "create report directory", out, err)
	}
	if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
		return apperr.WithPath(apperr.KindIO, "write report", out, err)
	}
	return nil
}

// relativeRef turns an artifact reference "<path>?t=<unix>" into a link relative to
// pageDir. The reference is returned unchanged if no relative path exists.
func relativeRef(pageDir, ref string) string {
	if ref == "" {
		return ""
	}
	p, query, _ := strings.Cut(ref, "?")
	if pageDir == "" {
		pageDir = "."
	}

	absDir, err := filepath.Abs(pageDir)
	if err != nil {
		return ref
	}
	absPath, err := filepath.Abs(p)
	if err != nil {
		return ref
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return ref
	}

	out := filepath.ToSlash(rel)
	if query != "" {
		out += "?" + query
	}
	return out
}
