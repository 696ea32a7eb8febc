// Package prompts renders the stage instructions sent to the model.
package prompts

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"pagesmith/internal/models"
)

// Built-in templates ship inside the binary.
//
//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("prompts").
		Funcs(template.FuncMap{
			"json": toJSON,
			"join": strings.Join,
		}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

type AnalysisInput struct {
	Prompt string
}

type StructureInput struct {
	Analysis *models.AnalysisResult
	Root     string
}

type EnhanceInput struct {
	FileName  string
	Directive string
	Analysis  *models.AnalysisResult
}

type GenerateInput struct {
	FileName  string
	Directive string
	Analysis  *models.AnalysisResult
	Siblings  []string
}

type ModifyInput struct {
	FileName    string
	Instruction string
	Content     string
}

func Analysis(in AnalysisInput) (string, error) {
	return render("analysis.tmpl", in)
}

func Structure(in StructureInput) (string, error) {
	if in.Root == "" {
		in.Root = models.RootDirectory
	}
	return render("structure.tmpl", in)
}

func Enhance(in EnhanceInput) (string, error) {
	return render("enhance.tmpl", in)
}

func Generate(in GenerateInput) (string, error) {
	return render("generate.tmpl", in)
}

func Modify(in ModifyInput) (string, error) {
	return render("modify.tmpl", in)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func toJSON(v any) (string, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
