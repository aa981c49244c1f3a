package workflow

import "fmt"

// Step is a workflow state.
type Step int

const (
	StepUpload Step = iota
	StepTranscribe
	StepPreferences
	StepRank
	StepResults
)

// Steps lists every step in workflow order.
var Steps = []Step{StepUpload, StepTranscribe, StepPreferences, StepRank, StepResults}

var stepNames = [...]string{"upload", "transcribe", "preferences", "rank", "results"}

func (s Step) String() string {
	if s < StepUpload || s > StepResults {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Number is the 1-based position shown to operators.
func (s Step) Number() int { return int(s) + 1 }

// ParseStep returns the step with the given name.
func ParseStep(name string) (Step, bool) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (s Step) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Step) UnmarshalText(b []byte) error {
	v, ok := ParseStep(string(b))
	if !ok {
		return fmt.Errorf("workflow: unknown step %q", b)
	}
	*s = v
	return nil
}

// stage declares what a step needs from the session and whether its
// output is already present.
type stage struct {
	next Step
	// ready reports whether the step's inputs exist.
	ready func(*Session) bool
	// done reports whether the step's output exists.
	done func(*Session) bool
}

// transitions is the forward transition table. StepResults is terminal;
// Reset returns any step to StepUpload.
var transitions = map[Step]stage{
	StepUpload: {
		next:  StepTranscribe,
		ready: func(*Session) bool { return true },
		done:  func(s *Session) bool { return s.Audio != nil },
	},
	StepTranscribe: {
		next:  StepPreferences,
		ready: func(s *Session) bool { return s.Audio != nil },
		done:  func(s *Session) bool { return s.Transcript != "" },
	},
	StepPreferences: {
		next:  StepRank,
		ready: func(s *Session) bool { return s.Transcript != "" },
		done:  func(s *Session) bool { return s.Preferences != nil },
	},
	StepRank: {
		next:  StepResults,
		ready: func(s *Session) bool { return s.Preferences != nil },
		done:  func(s *Session) bool { return s.Results != nil },
	},
	StepResults: {
		next:  StepResults,
		ready: func(s *Session) bool { return s.Results != nil },
		done:  func(s *Session) bool { return s.Presentation != nil },
	},
}
