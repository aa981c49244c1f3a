package workflow

import (
	"time"

	"github.com/sells-group/placement-cli/internal/model"
)

// Audio is an uploaded consultation recording.
type Audio struct {
	Name string
	Ext  string
	Data []byte
}

// Session is the state of one intake run. Each field is set once by the
// stage that produces it and cleared only by Reset.
type Session struct {
	ID           string
	Step         Step
	Audio        *Audio
	Transcript   string
	Preferences  *model.Preferences
	Extraction   ExtractionInfo
	Results      *model.ResultSet
	Presentation *Presentation
	LastError    *StageError
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ExtractionInfo records how the preferences were produced.
type ExtractionInfo struct {
	Raw                  string `json:"raw,omitempty"`
	BudgetFromTranscript bool   `json:"budget_from_transcript,omitempty"`
	Amended              bool   `json:"amended,omitempty"`
}

// View is a read-only copy of a Session without the audio bytes.
type View struct {
	ID           string             `json:"id"`
	Step         Step               `json:"step"`
	StepNumber   int                `json:"step_number"`
	AudioName    string             `json:"audio_name,omitempty"`
	AudioBytes   int                `json:"audio_bytes,omitempty"`
	Transcript   string             `json:"transcript,omitempty"`
	Preferences  *model.Preferences `json:"preferences,omitempty"`
	Extraction   ExtractionInfo     `json:"extraction"`
	Results      *model.ResultSet   `json:"results,omitempty"`
	Presentation *Presentation      `json:"presentation,omitempty"`
	Error        *ErrorView         `json:"error,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// ErrorView is the operator-facing form of a StageError.
type ErrorView struct {
	Step    Step   `json:"step"`
	Message string `json:"message"`
	Trace   string `json:"trace,omitempty"`
	Raw     string `json:"raw,omitempty"`
}

func (s *Session) view() View {
	v := View{
		ID:           s.ID,
		Step:         s.Step,
		StepNumber:   s.Step.Number(),
		Transcript:   s.Transcript,
		Preferences:  s.Preferences.Clone(),
		Extraction:   s.Extraction,
		Results:      s.Results,
		Presentation: s.Presentation,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	if s.Audio != nil {
		v.AudioName = s.Audio.Name
		v.AudioBytes = len(s.Audio.Data)
	}
	if e := s.LastError; e != nil {
		v.Error = &ErrorView{Step: e.Step, Message: e.Cause.Error(), Trace: e.Trace, Raw: e.Raw}
	}
	return v
}
