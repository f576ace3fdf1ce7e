package ai

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

var promptFuncs = template.FuncMap{
	// joinOr joins items with sep, or returns empty when there are none.
	"joinOr": func(items []string, sep, empty string) string {
		if len(items) == 0 {
			return empty
		}
		return strings.Join(items, sep)
	},
}

// RenderPrompt renders a prompt template with the provided data
func RenderPrompt(name, tmplStr string, data interface{}) (string, error) {
	tmpl, err := template.New(name).Funcs(promptFuncs).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("error parsing prompt template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("error rendering prompt template %s: %w", name, err)
	}

	return buf.String(), nil
}
