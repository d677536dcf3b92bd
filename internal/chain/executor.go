package chain

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dpshade/prompt-vault/internal/errs"
	"github.com/dpshade/prompt-vault/internal/logging"
	"github.com/dpshade/prompt-vault/internal/models"
	"github.com/dpshade/prompt-vault/internal/provider"
	"github.com/dpshade/prompt-vault/internal/renderer"
)

// PromptSource resolves stored prompt references to their current template
// text. The vault satisfies this; tests substitute a map.
type PromptSource interface {
	PromptContent(ref string) (string, error)
}

// SourceMap is a PromptSource over a plain map, for transient chains and tests.
type SourceMap map[string]string

// PromptContent implements PromptSource.
func (m SourceMap) PromptContent(ref string) (string, error) {
	content, ok := m[ref]
	if !ok {
		return "", fmt.Errorf("prompt %q: %w", ref, errs.ErrNotFound)
	}
	return content, nil
}

// Mode decides what a step failure that survives fallback handling does to
// the rest of the chain.
type Mode int

const (
	// ModeBestEffort records failures and keeps going; the failed step's
	// key is simply absent from the final context.
	ModeBestEffort Mode = iota
	// ModeStrict finishes the failing phase, then aborts the chain.
	ModeStrict
)

// StepFailure records a step whose outcome was failure with no successful
// fallback.
type StepFailure struct {
	Key string
	Err error
}

func (f StepFailure) Error() string {
	return fmt.Sprintf("step %q: %v", f.Key, f.Err)
}

// Unwrap exposes the underlying error to errors.Is/As.
func (f StepFailure) Unwrap() error {
	return f.Err
}

// Result aggregates one chain run. Context holds the initial variables plus
// one entry per succeeded step; Failures lists steps that failed for good;
// Skipped lists steps whose condition evaluated false.
type Result struct {
	Context  map[string]string
	Failures []StepFailure
	Skipped  []string
}

// Options tune one Execute call.
type Options struct {
	Mode Mode
	// Concurrency bounds how many steps of one phase run at once.
	// Zero means DefaultConcurrency.
	Concurrency int
}

// DefaultConcurrency bounds parallel steps per phase unless overridden.
const DefaultConcurrency = 8

// Executor runs chain plans. It is stateless across runs and safe for
// reuse; all per-run state lives in the Result under construction.
type Executor struct {
	source   PromptSource
	registry *provider.Registry
	log      logging.Logger
}

// NewExecutor builds an executor over a prompt source and provider registry.
func NewExecutor(source PromptSource, registry *provider.Registry, log logging.Logger) *Executor {
	return &Executor{source: source, registry: registry, log: log}
}

// Execute builds a plan from steps and runs it. Initial variables seed the
// run context and must not collide with step keys. The returned Result is
// non-nil whenever planning succeeded, even when err reports a strict-mode
// or fatal failure, so callers can inspect partial output.
func (e *Executor) Execute(ctx context.Context, steps []models.StepSpec, vars map[string]string, opts Options) (*Result, error) {
	plan, err := BuildPlan(steps)
	if err != nil {
		return nil, err
	}
	for _, phase := range plan.Phases {
		for _, s := range phase {
			if _, clash := vars[s.Key]; clash {
				return nil, fmt.Errorf("%w: step key %q collides with an initial variable", errs.ErrInvalidPlan, s.Key)
			}
		}
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	res := &Result{Context: make(map[string]string, len(vars)+plan.Steps())}
	for k, v := range vars {
		res.Context[k] = v
	}

	for i, phase := range plan.Phases {
		e.log.Debugf("phase %d/%d: %d step(s)", i+1, len(plan.Phases), len(phase))

		// Conditions and rendering only ever see context finalized by
		// prior phases; in-flight sibling writes stay invisible.
		snapshot := make(map[string]string, len(res.Context))
		for k, v := range res.Context {
			snapshot[k] = v
		}

		outcomes := make([]outcome, len(phase))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for j, step := range phase {
			g.Go(func() (err error) {
				defer func() {
					// A panicking provider is a fatal infrastructure
					// fault, not an ordinary step failure.
					if r := recover(); r != nil {
						err = fmt.Errorf("step %q: provider panicked: %v", step.Key, r)
					}
				}()
				outcomes[j] = e.runStep(gctx, step, snapshot)
				if oerr := outcomes[j].err; oerr != nil && errors.Is(oerr, context.Canceled) {
					// A sibling's fatal failure cancelled us.
					return oerr
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return res, err
		}

		// Commit the phase: every step reached a terminal outcome, so the
		// writes below are the only ones and need no lock.
		for _, o := range outcomes {
			switch {
			case o.skipped:
				res.Skipped = append(res.Skipped, o.key)
			case o.err != nil:
				res.Failures = append(res.Failures, StepFailure{Key: o.key, Err: o.err})
			default:
				res.Context[o.key] = o.output
			}
		}
		if opts.Mode == ModeStrict && len(res.Failures) > 0 {
			f := res.Failures[0]
			return res, fmt.Errorf("chain aborted: %w", f)
		}
	}
	return res, nil
}

type outcome struct {
	key     string
	output  string
	err     error
	skipped bool
}

// runStep walks one step through its lifecycle: condition, primary attempt,
// then at most one fallback attempt.
func (e *Executor) runStep(ctx context.Context, step models.StepSpec, snapshot map[string]string) outcome {
	if step.If != nil && !step.If.Evaluate(snapshot) {
		e.log.Debugf("step %q skipped by condition", step.Key)
		return outcome{key: step.Key, skipped: true}
	}

	output, err := e.attempt(ctx, step.PromptID, step.Template, step.Provider, snapshot)
	if err == nil {
		return outcome{key: step.Key, output: output}
	}
	if errors.Is(err, context.Canceled) || step.OnError == nil {
		return outcome{key: step.Key, err: err}
	}

	e.log.Debugf("step %q failed (%v), trying fallback", step.Key, err)
	fb := step.OnError
	fbProvider := fb.Provider
	if fbProvider == "" {
		fbProvider = step.Provider
	}
	output, fbErr := e.attempt(ctx, fb.PromptID, fb.Template, fbProvider, snapshot)
	if fbErr != nil {
		return outcome{key: step.Key, err: fmt.Errorf("primary failed: %v; fallback failed: %w", err, fbErr)}
	}
	return outcome{key: step.Key, output: output}
}

// attempt resolves a template source, renders it against the snapshot, and
// invokes the provider. Every error return is an ordinary step failure.
func (e *Executor) attempt(ctx context.Context, promptID, template, providerName string, snapshot map[string]string) (string, error) {
	text := template
	if promptID != "" {
		var err error
		text, err = e.source.PromptContent(promptID)
		if err != nil {
			return "", err
		}
	}

	rendered, err := renderer.Render(text, snapshot)
	if err != nil {
		return "", err
	}

	p, err := e.registry.Get(providerName)
	if err != nil {
		return "", err
	}
	return p.Complete(ctx, rendered)
}
