package capsule

import (
	"sync"
	"time"

	"github.com/hpungsan/kinsfolk/internal/errors"
	"github.com/hpungsan/kinsfolk/internal/ids"
)

// Engine owns the authoritative list of photos for the next capsule and
// the derived stats. Photos are held newest-first; insertion order is
// display order. The engine is safe for use from web, MCP, and CLI
// surfaces concurrently.
type Engine struct {
	mu     sync.Mutex
	photos []Photo
	stats  Stats
}

// NewEngine creates an engine with an empty photo collection. Streak and
// next-unlock are seeded by the caller (they come from the delivery
// scheduler, which is outside this engine).
func NewEngine(streak int, nextUnlockAt int64) *Engine {
	e := &Engine{
		stats: Stats{
			Streak:       streak,
			NextUnlockAt: nextUnlockAt,
		},
	}
	e.recompute()
	return e
}

// AddInput contains parameters for AddPhoto.
type AddInput struct {
	SourceRef   string // required
	Caption     string
	Contributor string // default: "You"
	AIGenerated bool
}

// AddPhoto constructs a Photo with a fresh ID and the current timestamp,
// prepends it to the collection, and recomputes stats.
func (e *Engine) AddPhoto(input AddInput) (Photo, error) {
	if input.SourceRef == "" {
		return Photo{}, errors.NewInvalidRequest("source_ref is required")
	}
	if input.Contributor == "" {
		input.Contributor = "You"
	}

	id, err := ids.New()
	if err != nil {
		return Photo{}, errors.NewInternal(err)
	}

	photo := Photo{
		ID:          id,
		SourceRef:   input.SourceRef,
		Caption:     input.Caption,
		AddedAt:     time.Now().Unix(),
		Contributor: input.Contributor,
		AIGenerated: input.AIGenerated,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.photos = append([]Photo{photo}, e.photos...)
	e.recompute()

	return photo, nil
}

// RemovePhoto removes the matching photo if present. Removing an absent
// ID is a no-op, not an error.
func (e *Engine) RemovePhoto(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, p := range e.photos {
		if p.ID == id {
			e.photos = append(e.photos[:i], e.photos[i+1:]...)
			e.recompute()
			return
		}
	}
}

// Photos returns a snapshot of the collection, newest-first.
func (e *Engine) Photos() []Photo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Photo(nil), e.photos...)
}

// Stats returns the current derived snapshot. Recomputation happens
// inside each mutation, so no partial state is ever observable here.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// SetStreak updates the streak counter. Called by the delivery scheduler.
func (e *Engine) SetStreak(streak int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if streak < 0 {
		streak = 0
	}
	e.stats.Streak = streak
}

// SetNextUnlock updates the next-unlock timestamp. Called by the delivery
// scheduler.
func (e *Engine) SetNextUnlock(at int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.NextUnlockAt = at
}

// recompute derives TotalPhotos and GardenLevel from the collection.
// Caller must hold e.mu.
func (e *Engine) recompute() {
	e.stats.TotalPhotos = len(e.photos)
	e.stats.GardenLevel = GardenLevel(len(e.photos))
}
