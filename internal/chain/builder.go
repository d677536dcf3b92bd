package chain

import (
	"fmt"

	"github.com/dpshade/prompt-vault/internal/models"
)

// Builder is a fluent convenience layer for assembling step lists in code.
// It is purely a constructor of data: the resulting []models.StepSpec is
// what executes, and anything the builder can express can equally be
// written by hand or loaded from a stored chain.
type Builder struct {
	vars           map[string]string
	steps          []models.StepSpec
	groupSeq       int
	lastGroupStart int // index of the first step of the most recent group, -1 if none
}

// NewBuilder starts an empty chain.
func NewBuilder() *Builder {
	return &Builder{vars: make(map[string]string), lastGroupStart: -1}
}

// Vars merges initial variables into the chain.
func (b *Builder) Vars(vars map[string]string) *Builder {
	for k, v := range vars {
		b.vars[k] = v
	}
	return b
}

// Var sets one initial variable.
func (b *Builder) Var(key, value string) *Builder {
	b.vars[key] = value
	return b
}

// Step appends a sequential step sourced from a stored prompt.
func (b *Builder) Step(key, promptRef string) *Builder {
	b.steps = append(b.steps, models.StepSpec{Key: key, PromptID: promptRef})
	return b
}

// StepRaw appends a sequential step with literal template text.
func (b *Builder) StepRaw(key, template string) *Builder {
	b.steps = append(b.steps, models.StepSpec{Key: key, Template: template})
	return b
}

// If attaches a condition to the last added step.
func (b *Builder) If(cond models.Condition) *Builder {
	if last := b.last(); last != nil {
		last.If = &cond
	}
	return b
}

// OnError sets a stored-prompt fallback for the last added step.
func (b *Builder) OnError(promptRef string) *Builder {
	if last := b.last(); last != nil {
		last.OnError = &models.FallbackSpec{PromptID: promptRef}
	}
	return b
}

// OnErrorRaw sets a literal-template fallback for the last added step.
func (b *Builder) OnErrorRaw(template string) *Builder {
	if last := b.last(); last != nil {
		last.OnError = &models.FallbackSpec{Template: template}
	}
	return b
}

// WithProvider names the backend for the last added step. Directly after
// Parallel it applies to every step of the group that has no provider yet.
func (b *Builder) WithProvider(name string) *Builder {
	if len(b.steps) == 0 {
		return b
	}
	last := &b.steps[len(b.steps)-1]
	if last.Group != "" && b.lastGroupStart >= 0 && b.steps[b.lastGroupStart].Group == last.Group {
		for i := b.lastGroupStart; i < len(b.steps); i++ {
			if b.steps[i].Provider == "" {
				b.steps[i].Provider = name
			}
		}
		return b
	}
	last.Provider = name
	return b
}

// Parallel adds a group of steps that run concurrently as one phase.
func (b *Builder) Parallel(build func(g *Group)) *Builder {
	b.groupSeq++
	g := &Group{id: fmt.Sprintf("g%d", b.groupSeq)}
	build(g)
	if len(g.steps) > 0 {
		b.lastGroupStart = len(b.steps)
		b.steps = append(b.steps, g.steps...)
	}
	return b
}

// Steps returns the assembled step list.
func (b *Builder) Steps() []models.StepSpec {
	return append([]models.StepSpec(nil), b.steps...)
}

// InitialVars returns the accumulated initial variables.
func (b *Builder) InitialVars() map[string]string {
	vars := make(map[string]string, len(b.vars))
	for k, v := range b.vars {
		vars[k] = v
	}
	return vars
}

// Definition packages the builder's output as a persistable chain.
func (b *Builder) Definition(title string) *models.ChainDefinition {
	return &models.ChainDefinition{Title: title, Vars: b.InitialVars(), Steps: b.Steps()}
}

func (b *Builder) last() *models.StepSpec {
	if len(b.steps) == 0 {
		return nil
	}
	return &b.steps[len(b.steps)-1]
}

// Group collects the steps of one parallel phase.
type Group struct {
	id    string
	steps []models.StepSpec
}

// Step adds a stored-prompt step to the group.
func (g *Group) Step(key, promptRef string) *Group {
	g.steps = append(g.steps, models.StepSpec{Key: key, PromptID: promptRef, Group: g.id})
	return g
}

// StepRaw adds a literal-template step to the group.
func (g *Group) StepRaw(key, template string) *Group {
	g.steps = append(g.steps, models.StepSpec{Key: key, Template: template, Group: g.id})
	return g
}

// If attaches a condition to the last added group step.
func (g *Group) If(cond models.Condition) *Group {
	if len(g.steps) > 0 {
		g.steps[len(g.steps)-1].If = &cond
	}
	return g
}

// OnError sets a stored-prompt fallback for the last added group step.
func (g *Group) OnError(promptRef string) *Group {
	if len(g.steps) > 0 {
		g.steps[len(g.steps)-1].OnError = &models.FallbackSpec{PromptID: promptRef}
	}
	return g
}

// WithProvider names the backend for the last added group step.
func (g *Group) WithProvider(name string) *Group {
	if len(g.steps) > 0 {
		g.steps[len(g.steps)-1].Provider = name
	}
	return g
}
