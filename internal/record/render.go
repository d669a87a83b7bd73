package record

import (
	"bytes"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Renderer renders the templates of one file system.
type Renderer struct {
	root    *template.Template
	funcMap template.FuncMap
}

// NewRenderer parses every template of fsys matching patterns.
func NewRenderer(fsys fs.FS, patterns ...string) (*Renderer, error) {
	funcs := FuncMap()
	root, err := template.New("").Funcs(funcs).Option("missingkey=zero").ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{root: root, funcMap: funcs}, nil
}

// Render executes the named template with data.
func (r *Renderer) Render(name string, data any) ([]byte, error) {
	t := r.root.Lookup(name)
	if t == nil {
		return nil, fmt.Errorf("template %s not found", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// RenderString executes an inline template, such as an output path.
func (r *Renderer) RenderString(text string, data any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}
	t, err := template.New(text).Funcs(r.funcMap).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", text, err)
	}
	var buf strings.Builder
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %q: %w", text, err)
	}
	return buf.String(), nil
}

// FuncMap returns the functions available to templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"title":    cases.Title(language.English).String,
		"upper":    strings.ToUpper,
		"lower":    strings.ToLower,
		"snake":    Snake,
		"join":     join,
		"contains": contains,
		"default":  fallback,
		"quote":    func(s any) string { return fmt.Sprintf("%q", fmt.Sprint(s)) },
	}
}

// Snake turns a project name into a python package name.
//
//	Snake("My-Project") // my_project
func Snake(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func join(sep string, v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(x, sep)
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, sep)
	default:
		return fmt.Sprint(v)
	}
}

func contains(v any, item string) bool {
	switch x := v.(type) {
	case []string:
		for _, s := range x {
			if s == item {
				return true
			}
		}
	case []any:
		for _, s := range x {
			if fmt.Sprint(s) == item {
				return true
			}
		}
	case string:
		return x == item
	}
	return false
}

// fallback is used as {{ .x | default "y" }}.
func fallback(def, v any) any {
	switch x := v.(type) {
	case nil:
		return def
	case string:
		if x == "" {
			return def
		}
	case []string:
		if len(x) == 0 {
			return def
		}
	}
	return v
}
