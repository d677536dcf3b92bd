package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dpshade/prompt-vault/internal/errs"
)

// ChainDefinition is an ordered list of steps persisted alongside prompts.
// Edits to the step list are versioned the same way prompt content is: the
// prior serialized form is snapshotted into Versions before the change lands.
type ChainDefinition struct {
	ID             string            `json:"id" yaml:"id,omitempty"`
	Title          string            `json:"title" yaml:"title,omitempty"`
	Vars           map[string]string `json:"vars,omitempty" yaml:"vars,omitempty"`
	Steps          []StepSpec        `json:"steps" yaml:"steps"`
	CreatedAt      time.Time         `json:"created_at" yaml:"-"`
	UpdatedAt      time.Time         `json:"updated_at" yaml:"-"`
	CurrentVersion int               `json:"current_version" yaml:"-"`
	Versions       []VersionRecord   `json:"versions,omitempty" yaml:"-"`
}

// StepSpec describes one unit of chain execution. Exactly one of PromptID
// (stored template) or Template (literal text) must be set. Steps that share
// a non-empty Group and are adjacent in the list run concurrently as one
// phase; steps with an empty Group run alone.
type StepSpec struct {
	Key      string        `json:"key" yaml:"key"`
	PromptID string        `json:"prompt_id,omitempty" yaml:"prompt,omitempty"`
	Template string        `json:"template,omitempty" yaml:"template,omitempty"`
	Provider string        `json:"provider,omitempty" yaml:"provider,omitempty"`
	Group    string        `json:"group,omitempty" yaml:"group,omitempty"`
	If       *Condition    `json:"if,omitempty" yaml:"if,omitempty"`
	OnError  *FallbackSpec `json:"on_error,omitempty" yaml:"on_error,omitempty"`
}

// FallbackSpec names the template run in place of a failed step. The
// fallback's output is stored under the original step's key. When Provider
// is empty the failed step's provider is reused.
type FallbackSpec struct {
	PromptID string `json:"prompt_id,omitempty" yaml:"prompt,omitempty"`
	Template string `json:"template,omitempty" yaml:"template,omitempty"`
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
}

// Condition is a serializable predicate over the run context. Exactly one of
// Equals, Contains or Matches should be set; Matches is a regular expression.
// A condition over a variable absent from the context evaluates to false.
type Condition struct {
	Variable string `json:"variable" yaml:"variable"`
	Equals   string `json:"equals,omitempty" yaml:"equals,omitempty"`
	Contains string `json:"contains,omitempty" yaml:"contains,omitempty"`
	Matches  string `json:"matches,omitempty" yaml:"matches,omitempty"`
}

// Evaluate applies the condition to a snapshot of the run context.
func (c *Condition) Evaluate(ctx map[string]string) bool {
	val, ok := ctx[c.Variable]
	if !ok {
		return false
	}
	switch {
	case c.Equals != "":
		return val == c.Equals
	case c.Contains != "":
		return strings.Contains(val, c.Contains)
	case c.Matches != "":
		re, err := regexp.Compile(c.Matches)
		if err != nil {
			return false
		}
		return re.MatchString(val)
	}
	// A condition with no operator only checks presence.
	return true
}

// ValidateSteps checks that every step has a key, keys are unique within
// the list, and each step and fallback names exactly one source. An empty
// list is valid: stored chains are assembled one step at a time.
func ValidateSteps(steps []StepSpec) error {
	seen := make(map[string]bool, len(steps))
	for i, s := range steps {
		if s.Key == "" {
			return fmt.Errorf("%w: step %d has no key", errs.ErrInvalidPlan, i)
		}
		if seen[s.Key] {
			return fmt.Errorf("%w: duplicate step key %q", errs.ErrInvalidPlan, s.Key)
		}
		seen[s.Key] = true
		if err := validateStepSource(s.PromptID, s.Template); err != nil {
			return fmt.Errorf("%w: step %q: %v", errs.ErrInvalidPlan, s.Key, err)
		}
		if s.OnError != nil {
			if err := validateStepSource(s.OnError.PromptID, s.OnError.Template); err != nil {
				return fmt.Errorf("%w: step %q fallback: %v", errs.ErrInvalidPlan, s.Key, err)
			}
		}
	}
	return nil
}

func validateStepSource(promptID, template string) error {
	switch {
	case promptID == "" && template == "":
		return errors.New("no prompt reference or template")
	case promptID != "" && template != "":
		return errors.New("both prompt reference and template set")
	}
	return nil
}

// Step returns the step with the given key, or nil.
func (c *ChainDefinition) Step(key string) *StepSpec {
	for i := range c.Steps {
		if c.Steps[i].Key == key {
			return &c.Steps[i]
		}
	}
	return nil
}
