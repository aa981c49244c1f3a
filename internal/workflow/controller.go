// Package workflow drives one intake session through the upload,
// transcribe, preferences, rank and results steps.
package workflow

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/placement-cli/internal/explain"
	"github.com/sells-group/placement-cli/internal/extract"
	"github.com/sells-group/placement-cli/internal/model"
	"github.com/sells-group/placement-cli/pkg/transcribe"
)

// Extractor turns a transcript into preferences.
type Extractor interface {
	Extract(ctx context.Context, transcript string) (*extract.Result, error)
}

// Ranker runs the ranking stage.
type Ranker interface {
	Rank(ctx context.Context, prefs *model.Preferences) (*model.ResultSet, error)
}

// Deps are the external collaborators of a Controller.
type Deps struct {
	Transcriber transcribe.Transcriber
	Extractor   Extractor
	Ranker      Ranker
	Explainer   explain.Explainer
}

// Options tunes a Controller.
type Options struct {
	// AutoAdvance moves to the next step after a stage's external call
	// succeeds. Without it every step waits for Confirm.
	AutoAdvance bool
	TopN        int
	Now         func() time.Time
}

// Controller owns one Session. It is not safe for concurrent use.
type Controller struct {
	deps    Deps
	opts    Options
	session *Session
}

// New creates a Controller with a fresh session.
func New(deps Deps, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if deps.Explainer == nil {
		deps.Explainer = explain.Noop{}
	}
	now := opts.Now().UTC()
	return &Controller{
		deps: deps,
		opts: opts,
		session: &Session{
			ID:        uuid.NewString(),
			Step:      StepUpload,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// ID returns the session id.
func (c *Controller) ID() string { return c.session.ID }

// Step returns the current step.
func (c *Controller) Step() Step { return c.session.Step }

// Snapshot returns a read-only view of the session.
func (c *Controller) Snapshot() View { return c.session.view() }

// Upload stores the recording. It is only allowed at StepUpload and
// replaces any earlier upload.
func (c *Controller) Upload(name string, data []byte) error {
	s := c.session
	if s.Step != StepUpload {
		return eris.Wrapf(ErrWrongStep, "upload at %s", s.Step)
	}
	if len(data) == 0 {
		return ErrNoAudio
	}
	ext := transcribe.NormalizeExt(filepath.Ext(name))
	if !transcribe.Supported(ext) {
		return eris.Wrapf(ErrUnsupportedAudio, "%q (want one of %s)", name, strings.Join(transcribe.SupportedFormats, ", "))
	}
	s.Audio = &Audio{Name: filepath.Base(name), Ext: ext, Data: append([]byte(nil), data...)}
	c.touch()
	zap.L().Info("workflow: audio uploaded",
		zap.String("session", s.ID),
		zap.String("file", s.Audio.Name),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// Run executes the current step. When the step's output already exists
// the external call is skipped and the cached output is kept. A failure
// leaves the session at the same step and is returned as *StageError.
func (c *Controller) Run(ctx context.Context) error {
	s := c.session
	st := transitions[s.Step]
	log := zap.L().With(zap.String("session", s.ID), zap.String("stage", s.Step.String()))

	if st.done(s) {
		log.Debug("workflow: reusing stage output")
		return nil
	}
	if s.Step == StepUpload {
		return ErrNoAudio
	}
	if !st.ready(s) {
		return eris.Wrapf(ErrMissingInput, "%s", s.Step)
	}

	start := time.Now()
	var err error
	switch s.Step {
	case StepTranscribe:
		err = c.runTranscribe(ctx)
	case StepPreferences:
		err = c.runPreferences(ctx)
	case StepRank:
		err = c.runRank(ctx)
	case StepResults:
		c.runResults(ctx)
	}
	if err != nil {
		se := newStageError(s.Step, err)
		s.LastError = se
		c.touch()
		log.Error("workflow: stage failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return se
	}

	s.LastError = nil
	log.Info("workflow: stage complete", zap.Duration("elapsed", time.Since(start)))
	if c.opts.AutoAdvance && s.Step != StepResults {
		s.Step = st.next
	}
	c.touch()
	return nil
}

// Confirm advances to the next step once the current step has output.
func (c *Controller) Confirm() error {
	s := c.session
	if s.Step == StepResults {
		return ErrFinalStep
	}
	st := transitions[s.Step]
	if !st.done(s) {
		return eris.Wrapf(ErrIncomplete, "%s", s.Step)
	}
	s.Step = st.next
	c.touch()
	return nil
}

// Complete runs and confirms steps until the results are presented.
func (c *Controller) Complete(ctx context.Context) error {
	for {
		before := c.session.Step
		if err := c.Run(ctx); err != nil {
			return err
		}
		if c.session.Step == StepResults && c.session.Presentation != nil {
			return nil
		}
		if c.session.Step != before {
			continue
		}
		if err := c.Confirm(); err != nil {
			return err
		}
	}
}

// Amendment is an operator correction to the extracted preferences.
type Amendment struct {
	MaxBudget   *float64 `json:"max_budget,omitempty"`
	ClearBudget bool     `json:"clear_budget,omitempty"`
	CareLevel   *string  `json:"care_level,omitempty"`
}

// AmendPreferences edits the preferences. It is allowed once preferences
// exist and until ranking has produced results. A zero budget removes the
// budget constraint.
func (c *Controller) AmendPreferences(a Amendment) error {
	s := c.session
	if s.Preferences == nil {
		return eris.Wrap(ErrIncomplete, "no preferences to amend")
	}
	if s.Results != nil {
		return ErrAlreadyRanked
	}
	if a.MaxBudget != nil {
		b := *a.MaxBudget
		if math.IsNaN(b) || math.IsInf(b, 0) || b < 0 {
			return eris.Errorf("workflow: invalid budget %v", b)
		}
		if b == 0 {
			s.Preferences.MaxBudget = nil
		} else {
			s.Preferences.MaxBudget = &b
		}
	}
	if a.ClearBudget {
		s.Preferences.MaxBudget = nil
	}
	if a.CareLevel != nil {
		s.Preferences.CareLevel = strings.TrimSpace(*a.CareLevel)
	}
	s.Extraction.Amended = true
	c.touch()
	return nil
}

// Reset clears every session field and returns to StepUpload. The
// session id is kept.
func (c *Controller) Reset() {
	now := c.opts.Now().UTC()
	c.session = &Session{
		ID:        c.session.ID,
		Step:      StepUpload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	zap.L().Info("workflow: session reset", zap.String("session", c.session.ID))
}

func (c *Controller) runTranscribe(ctx context.Context) error {
	if c.deps.Transcriber == nil {
		return eris.New("transcription is not configured")
	}
	a := c.session.Audio
	text, err := c.deps.Transcriber.Transcribe(ctx, a.Data, a.Ext)
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return eris.New("transcription returned no text")
	}
	c.session.Transcript = text
	return nil
}

func (c *Controller) runPreferences(ctx context.Context) error {
	if c.deps.Extractor == nil {
		return eris.New("preference extraction is not configured")
	}
	res, err := c.deps.Extractor.Extract(ctx, c.session.Transcript)
	if err != nil {
		return err
	}
	c.session.Preferences = res.Preferences
	c.session.Extraction = ExtractionInfo{Raw: res.Raw, BudgetFromTranscript: res.BudgetFromTranscript}
	return nil
}

func (c *Controller) runRank(ctx context.Context) error {
	if c.deps.Ranker == nil {
		return eris.New("ranking is not configured")
	}
	rs, err := c.deps.Ranker.Rank(ctx, c.session.Preferences.Clone())
	if err != nil {
		return err
	}
	c.session.Results = rs
	return nil
}

func (c *Controller) runResults(ctx context.Context) {
	c.session.Presentation = Present(ctx, c.deps.Explainer, c.session.Preferences, c.session.Results, c.opts.TopN)
}

func (c *Controller) touch() {
	c.session.UpdatedAt = c.opts.Now().UTC()
}
