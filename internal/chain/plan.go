// Package chain plans and executes multi-step prompt chains: sequential
// phases, parallel groups, runtime conditions, and per-step fallbacks.
package chain

import (
	"fmt"

	"github.com/dpshade/prompt-vault/internal/errs"
	"github.com/dpshade/prompt-vault/internal/models"
)

// Plan is an ordered list of phases built from a flat step list. Phases run
// strictly in sequence; all steps inside one phase run concurrently.
type Plan struct {
	Phases [][]models.StepSpec
}

// Steps returns the total number of steps across phases.
func (p *Plan) Steps() int {
	n := 0
	for _, phase := range p.Phases {
		n += len(phase)
	}
	return n
}

// BuildPlan partitions steps into phases and validates the step list. A
// maximal run of consecutive steps sharing the same non-empty group becomes
// one concurrent phase; an ungrouped step, or a change of group, starts a
// new phase.
//
// Validation is planning-time: duplicate or empty keys and malformed
// sources are rejected here so the executor never has to lock around key
// ownership.
func BuildPlan(steps []models.StepSpec) (*Plan, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: chain has no steps", errs.ErrInvalidPlan)
	}
	if err := models.ValidateSteps(steps); err != nil {
		return nil, err
	}

	plan := &Plan{}
	var phase []models.StepSpec
	currentGroup := ""
	flush := func() {
		if len(phase) > 0 {
			plan.Phases = append(plan.Phases, phase)
			phase = nil
		}
	}
	for _, s := range steps {
		if s.Group == "" || s.Group != currentGroup {
			flush()
		}
		currentGroup = s.Group
		phase = append(phase, s)
		if s.Group == "" {
			flush()
		}
	}
	flush()
	return plan, nil
}
