package workflow

import (
	"errors"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/placement-cli/internal/extract"
)

// Sentinel errors for controller misuse.
var (
	ErrNoAudio          = errors.New("workflow: no audio uploaded")
	ErrUnsupportedAudio = errors.New("workflow: unsupported audio format")
	ErrWrongStep        = errors.New("workflow: operation not allowed at this step")
	ErrIncomplete       = errors.New("workflow: current step has no output yet")
	ErrMissingInput     = errors.New("workflow: current step is missing its input")
	ErrFinalStep        = errors.New("workflow: already at the final step")
	ErrAlreadyRanked    = errors.New("workflow: preferences cannot change after ranking")
)

// StageError is a failed stage run. The session stays at Step.
type StageError struct {
	Step  Step
	Cause error
	// Trace is the full error chain for the operator's debug view.
	Trace string
	// Raw is the malformed extraction payload, when there was one.
	Raw string
}

func newStageError(step Step, err error) *StageError {
	se := &StageError{Step: step, Cause: err, Trace: eris.ToString(err, true)}
	var pe *extract.PayloadError
	if errors.As(err, &pe) {
		se.Raw = pe.Raw
	}
	return se
}

func (e *StageError) Error() string {
	return fmt.Sprintf("workflow: %s failed: %v", e.Step, e.Cause)
}

func (e *StageError) Unwrap() error { return e.Cause }
