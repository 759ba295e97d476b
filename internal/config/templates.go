package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	derrors "git.home.luguber.info/inful/docstage/internal/errors"
	"git.home.luguber.info/inful/docstage/internal/indexes"
	"git.home.luguber.info/inful/docstage/internal/stage"
)

// ModuleData is the data passed to intro and outro templates.
type ModuleData struct {
	ID   string // absolute module id
	Name string // base name without extension
	Dir  string // directory of the module
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"base":  filepath.Base,
		"title": titleCase,
		"lower": strings.ToLower,
	}
}

// titleCase turns "http-client_pool" into "Http Client Pool".
func titleCase(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	// a Caser is stateful, so one per call
	return cases.Title(language.English).String(s)
}

func parseTemplate(field, raw string) (*template.Template, error) {
	tpl, err := template.New(field).Funcs(templateFuncs()).Option("missingkey=error").Parse(raw)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CategoryConfig, derrors.SeverityFatal, "invalid template").
			WithContext("field", field)
	}
	return tpl, nil
}

func isTemplate(s string) bool { return strings.Contains(s, "{{") }

// wrapFromString returns a static wrap for plain text and a per-module
// template otherwise.
func wrapFromString(field, raw string) (stage.Wrap, error) {
	if !isTemplate(raw) {
		return stage.WrapOf(field, raw)
	}
	tpl, err := parseTemplate(field, raw)
	if err != nil {
		return stage.Wrap{}, err
	}
	return stage.WrapOf(field, func(id string) (string, error) {
		base := filepath.Base(id)
		data := ModuleData{
			ID:   id,
			Name: strings.TrimSuffix(base, filepath.Ext(base)),
			Dir:  filepath.Dir(id),
		}
		var buf bytes.Buffer
		if err := tpl.Execute(&buf, data); err != nil {
			return "", err
		}
		return buf.String(), nil
	})
}

func indexTemplate(raw string) (indexes.ContentFunc, error) {
	tpl, err := parseTemplate("index", raw)
	if err != nil {
		return nil, err
	}
	return func(p indexes.Page) (string, error) {
		var buf bytes.Buffer
		if err := tpl.Execute(&buf, p); err != nil {
			return "", err
		}
		return buf.String(), nil
	}, nil
}
