// Package renderer substitutes {{name}} placeholders in prompt templates.
// Rendering is pure: same template and variables always produce the same
// output, and nothing outside the returned string is touched.
package renderer

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// MissingVariableError reports the first placeholder, in template order,
// with no corresponding entry in the variable map.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("missing template variable: %s", e.Name)
}

// Render fills every {{name}} placeholder from vars. Literal text outside
// placeholders passes through unchanged. Every placeholder must be bound or
// rendering fails with a MissingVariableError naming the first unbound one.
func Render(template string, vars map[string]string) (string, error) {
	matches := placeholderRe.FindAllStringSubmatchIndex(template, -1)
	if len(matches) == 0 {
		return template, nil
	}

	var b strings.Builder
	b.Grow(len(template))
	last := 0
	for _, m := range matches {
		name := template[m[2]:m[3]]
		val, ok := vars[name]
		if !ok {
			return "", &MissingVariableError{Name: name}
		}
		b.WriteString(template[last:m[0]])
		b.WriteString(val)
		last = m[1]
	}
	b.WriteString(template[last:])
	return b.String(), nil
}

// Variables lists the distinct placeholder names in template order.
func Variables(template string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
