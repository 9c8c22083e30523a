package credential

import (
	"database/sql"
	"os"
	"strings"
	"time"

	"github.com/hpungsan/kinsfolk/internal/db"
	"github.com/hpungsan/kinsfolk/internal/errors"
)

// Environment variables consulted when no stored credential exists.
// GEMINI_API_KEY is the documented name; API_KEY is accepted for
// compatibility with older setups.
var envKeys = []string{"GEMINI_API_KEY", "API_KEY"}

// Source describes where a resolved credential came from.
type Source string

const (
	SourceStored      Source = "stored"
	SourceEnvironment Source = "environment"
	SourceNone        Source = "none"
)

// Resolver determines the active AI-service credential. A user-supplied
// value in the settings store always wins over process configuration.
// Resolution re-reads current state on every call so an update from the
// settings surface takes effect immediately; there is no caching.
type Resolver struct {
	db *sql.DB
}

// NewResolver creates a Resolver backed by the settings store.
func NewResolver(database *sql.DB) *Resolver {
	return &Resolver{db: database}
}

// Resolve returns the active credential and whether one exists.
func (r *Resolver) Resolve() (string, bool) {
	value, source := r.lookup()
	return value, source != SourceNone
}

// Present reports whether any credential is resolvable.
func (r *Resolver) Present() bool {
	_, ok := r.Resolve()
	return ok
}

// Source reports where the active credential comes from, for display on
// the settings surface.
func (r *Resolver) Source() Source {
	_, source := r.lookup()
	return source
}

// Set persists value as the user-supplied credential, overriding any
// configuration-sourced value for subsequent resolutions.
func (r *Resolver) Set(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return errors.NewInvalidRequest("credential must not be empty")
	}
	if err := db.SetSetting(r.db, db.KeyAICredential, value, time.Now().Unix()); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Clear removes the persisted credential. Subsequent resolutions fall
// back to process configuration.
func (r *Resolver) Clear() error {
	if err := db.DeleteSetting(r.db, db.KeyAICredential); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func (r *Resolver) lookup() (string, Source) {
	stored, ok, err := db.GetSetting(r.db, db.KeyAICredential)
	if err == nil && ok {
		return Pick(stored, envValue())
	}
	// A read failure degrades to environment-only resolution; the worst
	// outcome is a MISSING_CREDENTIAL prompt, never a crash.
	return Pick("", envValue())
}

func envValue() string {
	for _, key := range envKeys {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Pick applies the resolution order to two optional inputs: a stored
// user override beats a configuration default. Pure so the precedence
// rule is testable independent of storage.
func Pick(stored, env string) (string, Source) {
	if strings.TrimSpace(stored) != "" {
		return strings.TrimSpace(stored), SourceStored
	}
	if strings.TrimSpace(env) != "" {
		return strings.TrimSpace(env), SourceEnvironment
	}
	return "", SourceNone
}
