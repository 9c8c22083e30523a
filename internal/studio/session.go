// Package studio owns the Creative Studio image-generation session: one
// pending or resolved request at a time, handed off into the capsule on
// commit.
package studio

import (
	"context"
	"strings"
	"sync"

	"github.com/hpungsan/kinsfolk/internal/capsule"
	"github.com/hpungsan/kinsfolk/internal/errors"
)

// AIContributor labels photos committed from the studio so AI authorship
// is visible in the capsule.
const AIContributor = "You (AI)"

// FailureMessage is the generic failed-state text shown with the retry
// affordance.
const FailureMessage = "Failed to create image. Please try a different prompt."

// Status tags the session state. Exactly one variant holds at a time;
// the tagged form rules out impossible combinations like succeeded while
// still in flight.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusGenerating Status = "generating"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// Snapshot is a read-only view of the session for presentation.
type Snapshot struct {
	Status   Status `json:"status"`
	Prompt   string `json:"prompt,omitempty"`
	ImageRef string `json:"image_ref,omitempty"` // set only when succeeded
	Message  string `json:"message,omitempty"`  // set only when failed
}

// ImageGenerator is the slice of the gateway this session needs.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Session drives one image-generation request and its hand-off into the
// capsule engine. Duplicate submissions while in flight are rejected
// synchronously; starting a new request from succeeded or failed
// discards the prior result.
type Session struct {
	mu     sync.Mutex
	gen    ImageGenerator
	engine *capsule.Engine
	state  Snapshot
}

// NewSession creates an idle studio session.
func NewSession(gen ImageGenerator, engine *capsule.Engine) *Session {
	return &Session{
		gen:    gen,
		engine: engine,
		state:  Snapshot{Status: StatusIdle},
	}
}

// State returns the current snapshot.
func (s *Session) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Generate requests an image for the prompt. The in-flight gate is
// checked and entered atomically; the transition out of generating is
// guaranteed on every exit path. The typed error is returned so callers
// can route MISSING_CREDENTIAL to settings, but the failed snapshot
// already carries safe display text.
func (s *Session) Generate(ctx context.Context, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return errors.NewInvalidRequest("prompt must not be empty")
	}

	s.mu.Lock()
	if s.state.Status == StatusGenerating {
		s.mu.Unlock()
		return errors.NewConflict("an image is already being generated")
	}
	// Entering generating discards any prior succeeded/failed result.
	s.state = Snapshot{Status: StatusGenerating, Prompt: prompt}
	s.mu.Unlock()

	imageRef, err := s.gen.GenerateImage(ctx, prompt)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Snapshot{Status: StatusFailed, Prompt: prompt, Message: failureText(err)}
		return err
	}
	s.state = Snapshot{Status: StatusSucceeded, Prompt: prompt, ImageRef: imageRef}
	return nil
}

// Commit adds the generated image to the capsule with AI authorship and
// resets the session to idle so a new prompt can be composed. Valid only
// in the succeeded state.
func (s *Session) Commit() (capsule.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Status != StatusSucceeded {
		return capsule.Photo{}, errors.NewConflict("no generated image to save")
	}

	photo, err := s.engine.AddPhoto(capsule.AddInput{
		SourceRef:   s.state.ImageRef,
		Caption:     s.state.Prompt,
		Contributor: AIContributor,
		AIGenerated: true,
	})
	if err != nil {
		return capsule.Photo{}, err
	}

	s.state = Snapshot{Status: StatusIdle}
	return photo, nil
}

// failureText maps a gateway error onto the text shown in the failed
// state. Missing-credential keeps its own message so the UI can point at
// settings; everything else gets the generic retry text.
func failureText(err error) string {
	if errors.Is(err, errors.ErrMissingCredential) {
		if kErr, ok := err.(*errors.KinError); ok {
			return kErr.Message
		}
	}
	if errors.Is(err, errors.ErrNoImageProduced) {
		if kErr, ok := err.(*errors.KinError); ok {
			return kErr.Message
		}
	}
	return FailureMessage
}
