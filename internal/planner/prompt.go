package planner

import (
	"bytes"
	_ "embed"
	"text/template"
)

//go:embed date_prompt.md
var datePrompt string

var datePromptTmpl = template.Must(template.New("DatePlanner").Parse(datePrompt))

func buildDatePrompt(data NormalizedRequest) (string, error) {
	var buf bytes.Buffer
	if err := datePromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
