package family

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/hpungsan/kinsfolk/internal/db"
	"github.com/hpungsan/kinsfolk/internal/errors"
	"github.com/hpungsan/kinsfolk/internal/ids"
)

// Roster owns the list of family members and their contribution status.
// Every mutation synchronously serializes the full roster to the settings
// store; a failed write is logged and swallowed because the in-memory
// state stays correct for the session.
type Roster struct {
	mu      sync.Mutex
	db      *sql.DB
	members []Member
}

// Load rehydrates the roster from the settings store, falling back to the
// default roster on missing or malformed data. It never fails on bad
// persisted state.
func Load(database *sql.DB) *Roster {
	raw, ok, err := db.GetSetting(database, db.KeyFamilyRoster)
	if err != nil {
		log.Printf("family: roster read failed, using defaults: %v", err)
		raw, ok = "", false
	}
	if !ok {
		raw = ""
	}
	return &Roster{
		db:      database,
		members: Deserialize(raw),
	}
}

// Members returns a snapshot of the roster.
func (r *Roster) Members() []Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Member(nil), r.members...)
}

// Get returns the member with the given ID.
func (r *Roster) Get(id string) (Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// Add appends a new member with pending status and persists the roster.
func (r *Roster) Add(name string) (Member, error) {
	name = cleanName(name)
	if name == "" {
		return Member{}, errors.NewInvalidRequest("name must not be empty")
	}

	id, err := ids.New()
	if err != nil {
		return Member{}, errors.NewInternal(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	member := Member{
		ID:          id,
		DisplayName: name,
		AvatarLabel: AvatarLabel(name),
		Status:      StatusPending,
	}
	r.members = append(r.members, member)
	r.persist()

	return member, nil
}

// Rename updates a member's display name and re-derives the avatar label.
// Renaming an absent ID is a no-op.
func (r *Roster) Rename(id, newName string) error {
	newName = cleanName(newName)
	if newName == "" {
		return errors.NewInvalidRequest("name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.members {
		if r.members[i].ID == id {
			r.members[i].DisplayName = newName
			r.members[i].AvatarLabel = AvatarLabel(newName)
			r.persist()
			return nil
		}
	}
	return nil
}

// Remove deletes a member if present. Confirmation is the caller's
// responsibility; the roster itself never prompts.
func (r *Roster) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.members {
		if r.members[i].ID == id {
			r.members = append(r.members[:i], r.members[i+1:]...)
			r.persist()
			return
		}
	}
}

// SetStatus updates a member's contribution status. Absent IDs and
// unknown statuses are rejected.
func (r *Roster) SetStatus(id string, status Status) error {
	if !status.Valid() {
		return errors.NewInvalidRequest("status must be one of: ready, pending, overdue")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.members {
		if r.members[i].ID == id {
			r.members[i].Status = status
			r.persist()
			return nil
		}
	}
	return errors.NewNotFound("member " + id)
}

// persist writes the full roster to the settings store, best-effort.
// Caller must hold r.mu.
func (r *Roster) persist() {
	raw, err := Serialize(r.members)
	if err != nil {
		log.Printf("family: roster serialize failed: %v", err)
		return
	}
	if err := db.SetSetting(r.db, db.KeyFamilyRoster, raw, time.Now().Unix()); err != nil {
		log.Printf("family: roster persist failed: %v", err)
	}
}
