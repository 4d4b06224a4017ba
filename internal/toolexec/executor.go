// Package toolexec invokes tools under a deadline-bearing context and
// records status and timing, per spec §4.2. Dispatch within one agent
// iteration is always sequential — see spec §5 and §9 ("Sequential tool
// dispatch").
package toolexec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/basalt-run/agentkit/internal/tool"
)

// ErrNotFound is returned when the named tool is absent from the
// registry.
var ErrNotFound = errors.New("toolexec: tool not found")

// ErrCancelled is returned when the context was already cancelled before
// dispatch began.
var ErrCancelled = errors.New("toolexec: cancelled")

// DefaultTimeout is used when no deadline is already present on the
// incoming context.
const DefaultTimeout = 60 * time.Second

// Status classifies how a single dispatch concluded.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusTimeout Status = "timeout"
)

// Result records the outcome of one tool dispatch.
type Result struct {
	ToolName string
	Output   tool.Output
	Status   Status
	Started  time.Time
	Ended    time.Time
}

// Duration returns how long the dispatch took.
func (r Result) Duration() time.Duration { return r.Ended.Sub(r.Started) }

// Executor dispatches single tool calls against a registry, applying the
// timeout-clamping and "advisory dangerous" rules of spec §4.2.
type Executor struct {
	registry       *tool.Registry
	defaultTimeout time.Duration
	sandbox        *Sandbox
}

// New creates an Executor backed by registry. If defaultTimeout is <= 0,
// DefaultTimeout is used.
func New(registry *tool.Registry, defaultTimeout time.Duration) *Executor {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}
	return &Executor{registry: registry, defaultTimeout: defaultTimeout}
}

// WithSandbox attaches a Sandbox shim; every dispatch is checked against
// it before the tool runs.
func (e *Executor) WithSandbox(s *Sandbox) *Executor {
	e.sandbox = s
	return e
}


// IsDangerous reports whether name is registered as dangerous. Absent
// tools are not dangerous by definition.
func (e *Executor) IsDangerous(name string) bool {
	t, ok := e.registry.Get(name)
	if !ok {
		return false
	}
	return t.Definition().Dangerous
}

// NeedsConfirmation is an alias for IsDangerous; the executor itself never
// blocks dangerous calls (spec §4.2) — it only advertises the hint.
func (e *Executor) NeedsConfirmation(name string) bool {
	return e.IsDangerous(name)
}

// Execute runs one tool call through the full dispatch sequence of spec
// §4.2: lookup, cancellation check, input validation, deadline clamping,
// invocation, and timeout classification.
func (e *Executor) Execute(ctx context.Context, name string, input json.RawMessage) Result {
	started := time.Now()

	if err := ctx.Err(); err != nil {
		return Result{
			ToolName: name,
			Output:   tool.Output{Content: "tool execution cancelled", IsError: true},
			Status:   StatusError,
			Started:  started,
			Ended:    time.Now(),
		}
	}

	t, ok := e.registry.Get(name)
	if !ok {
		return Result{
			ToolName: name,
			Output:   tool.Output{Content: fmt.Sprintf("Tool execution not available: %s", name), IsError: true},
			Status:   StatusError,
			Started:  started,
			Ended:    time.Now(),
		}
	}

	if e.sandbox != nil {
		if err := e.sandbox.CheckTool(t); err != nil {
			return Result{
				ToolName: name,
				Output:   tool.Output{Content: err.Error(), IsError: true},
				Status:   StatusError,
				Started:  started,
				Ended:    time.Now(),
			}
		}
	}

	def := t.Definition()
	if err := tool.ValidateInput(def, input); err != nil {
		return Result{
			ToolName: name,
			Output:   tool.Output{Content: err.Error(), IsError: true},
			Status:   StatusError,
			Started:  started,
			Ended:    time.Now(),
		}
	}

	effective := e.effectiveTimeout(ctx)
	execCtx, cancel := context.WithTimeout(ctx, effective)
	defer cancel()

	var (
		execFn func()
		out    tool.Output
		runErr error
	)
	done := make(chan struct{})
	execFn = func() {
		defer close(done)
		out, runErr = t.Execute(execCtx, input)
	}
	go execFn()

	select {
	case <-execCtx.Done():
		ended := time.Now()
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return Result{
				ToolName: name,
				Output:   tool.Output{Content: fmt.Sprintf("tool execution timed out after %s", effective), IsError: true},
				Status:   StatusTimeout,
				Started:  started,
				Ended:    ended,
			}
		}
		return Result{
			ToolName: name,
			Output:   tool.Output{Content: "tool execution cancelled", IsError: true},
			Status:   StatusError,
			Started:  started,
			Ended:    ended,
		}
	case <-done:
		ended := time.Now()
		if runErr != nil {
			return Result{
				ToolName: name,
				Output:   tool.Output{Content: runErr.Error(), IsError: true},
				Status:   StatusError,
				Started:  started,
				Ended:    ended,
			}
		}
		status := StatusSuccess
		if out.IsError {
			status = StatusError
		}
		return Result{ToolName: name, Output: out, Status: status, Started: started, Ended: ended}
	}
}

// effectiveTimeout implements spec §4.2/§5: effective_deadline =
// min(ctx.remaining, default_timeout).
func (e *Executor) effectiveTimeout(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining < e.defaultTimeout {
			if remaining < 0 {
				return 0
			}
			return remaining
		}
	}
	return e.defaultTimeout
}

// ExecuteSequentially runs each (name, input) pair in order, waiting for
// each to finish before starting the next. This is the only dispatch mode
// the agent loop uses (spec §4.4/§5): tools may share external state and
// the model expects tool-results in the order it emitted tool-uses.
func (e *Executor) ExecuteSequentially(ctx context.Context, calls []Call) []Result {
	results := make([]Result, len(calls))
	for i, c := range calls {
		results[i] = e.Execute(ctx, c.Name, c.Input)
	}
	return results
}

// Call is one tool invocation request: a name plus its JSON input.
type Call struct {
	ID    string
	Name  string
	Input json.RawMessage
}
