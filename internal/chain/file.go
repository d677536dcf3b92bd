package chain

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/dpshade/prompt-vault/internal/models"
)

// Chain definition files are plain YAML:
//
//	title: review pipeline
//	vars:
//	  language: go
//	steps:
//	  - key: summary
//	    prompt: a1b2c3d4
//	    provider: fast
//	  - key: style
//	    template: "Review {{summary}} for style."
//	    provider: thorough
//	    group: checks
//	  - key: bugs
//	    template: "Review {{summary}} for bugs."
//	    provider: thorough
//	    group: checks
//	    if: {variable: language, equals: go}
//	    on_error: {template: "Say the bug check was unavailable."}

// ParseDefinition decodes a YAML chain file.
func ParseDefinition(data []byte) (*models.ChainDefinition, error) {
	def := &models.ChainDefinition{}
	if err := yaml.Unmarshal(data, def); err != nil {
		return nil, fmt.Errorf("failed to parse chain file: %w", err)
	}
	if _, err := BuildPlan(def.Steps); err != nil {
		return nil, err
	}
	return def, nil
}

// EncodeDefinition renders a chain as a YAML file.
func EncodeDefinition(def *models.ChainDefinition) ([]byte, error) {
	out, err := yaml.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chain: %w", err)
	}
	return out, nil
}
