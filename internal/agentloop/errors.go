// Package agentloop implements the agent executor of spec §4.4: the
// ReAct-style loop that drives a session through provider completions and
// sequential tool dispatch.
package agentloop

import (
	"errors"
	"fmt"
)

// Phase identifies where in the loop's state machine an error occurred.
type Phase string

const (
	PhaseInit         Phase = "init"
	PhaseBuildRequest Phase = "build_request"
	PhaseComplete     Phase = "complete_request"
	PhaseExecuteTools Phase = "execute_tools"
	PhaseDone         Phase = "done"
)

// ErrMaxIterations is the fatal sentinel of spec §4.4's MaxIterationsReached.
var ErrMaxIterations = errors.New("agentloop: max iterations reached")

// LoopError carries the phase and iteration an error surfaced at,
// mirroring the teacher's LoopError/LoopPhase pair.
type LoopError struct {
	Phase     Phase
	Iteration int
	Cause     error
}

func (e *LoopError) Error() string {
	return fmt.Sprintf("agentloop: error at %s (iteration %d): %v", e.Phase, e.Iteration, e.Cause)
}

func (e *LoopError) Unwrap() error { return e.Cause }
