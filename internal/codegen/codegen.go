// Package codegen renders the statements of a run as an executable SQL script.
package codegen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/schemafuzz/schemafuzz/internal/runner"
)

const FileName = "statements.sql"

// Generator renders SQL scripts.
type Generator struct {
	RunID string
	// Skipped adds a comment line for each skipped step.
	Skipped bool
}

type templateData struct {
	RunID     string
	Seed      uint64
	Dialect   string
	Skipped   bool
	Scenarios []scenarioData
}

type scenarioData struct {
	Index     int
	Table     string
	CreateSQL string
	Steps     []runner.Step
}

var scriptTemplate = template.Must(template.New("script").Parse(`-- schemafuzz run {{ .RunID }}
-- seed: {{ .Seed }}
-- dialect: {{ .Dialect }}
{{ range .Scenarios }}
-- === Scenario {{ .Index }}: {{ .Table }} ===
{{ .CreateSQL }}
{{- range .Steps }}
{{- if .SQL }}
{{ .SQL }}
{{- else if $.Skipped }}
-- step {{ .Index }}: {{ .Operation }} skipped ({{ .Skipped }})
{{- end }}
{{- end }}
{{ end -}}
`))

// Generate renders res as a SQL script, scenarios in index order.
func (g *Generator) Generate(res *runner.Result) (string, error) {
	data := templateData{
		RunID:   g.RunID,
		Seed:    res.Seed,
		Dialect: res.Dialect,
		Skipped: g.Skipped,
	}
	for _, sc := range res.Scenarios {
		data.Scenarios = append(data.Scenarios, scenarioData{
			Index:     sc.Index,
			Table:     sc.Create.TableName,
			CreateSQL: sc.CreateSQL,
			Steps:     sc.Steps,
		})
	}

	var buf bytes.Buffer
	if err := scriptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// WriteFile renders res into path.
func (g *Generator) WriteFile(res *runner.Result, path string) error {
	script, err := g.Generate(res)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return os.WriteFile(path, []byte(script), 0o644)
}
