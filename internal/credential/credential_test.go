package credential

import (
	"testing"

	"github.com/hpungsan/kinsfolk/internal/db"
	"github.com/hpungsan/kinsfolk/internal/errors"
)

func testResolver(t *testing.T) *Resolver {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return NewResolver(database)
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
}

func TestPick_Precedence(t *testing.T) {
	tests := []struct {
		name       string
		stored     string
		env        string
		wantValue  string
		wantSource Source
	}{
		{"stored wins", "user-key", "env-key", "user-key", SourceStored},
		{"env fallback", "", "env-key", "env-key", SourceEnvironment},
		{"stored only", "user-key", "", "user-key", SourceStored},
		{"neither", "", "", "", SourceNone},
		{"whitespace stored ignored", "   ", "env-key", "env-key", SourceEnvironment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, source := Pick(tt.stored, tt.env)
			if value != tt.wantValue {
				t.Errorf("value = %q, want %q", value, tt.wantValue)
			}
			if source != tt.wantSource {
				t.Errorf("source = %q, want %q", source, tt.wantSource)
			}
		})
	}
}

func TestResolve_AbsentEverywhere(t *testing.T) {
	clearEnv(t)
	r := testResolver(t)

	if _, ok := r.Resolve(); ok {
		t.Error("expected no credential")
	}
	if r.Present() {
		t.Error("Present should be false")
	}
	if r.Source() != SourceNone {
		t.Errorf("Source = %q, want none", r.Source())
	}
}

func TestResolve_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "env-secret")
	r := testResolver(t)

	value, ok := r.Resolve()
	if !ok || value != "env-secret" {
		t.Errorf("Resolve = (%q, %v), want env-secret", value, ok)
	}
	if r.Source() != SourceEnvironment {
		t.Errorf("Source = %q, want environment", r.Source())
	}
}

func TestResolve_LegacyEnvKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEY", "legacy-secret")
	r := testResolver(t)

	value, ok := r.Resolve()
	if !ok || value != "legacy-secret" {
		t.Errorf("Resolve = (%q, %v), want legacy-secret", value, ok)
	}
}

func TestSet_OverridesEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "env-secret")
	r := testResolver(t)

	if err := r.Set("user-secret"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, ok := r.Resolve()
	if !ok || value != "user-secret" {
		t.Errorf("Resolve = (%q, %v), want user-secret", value, ok)
	}
	if r.Source() != SourceStored {
		t.Errorf("Source = %q, want stored", r.Source())
	}
}

func TestSet_Empty(t *testing.T) {
	r := testResolver(t)

	err := r.Set("   ")
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Set(blank) error = %v, want INVALID_REQUEST", err)
	}
}

func TestClear_FallsBackToEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "env-secret")
	r := testResolver(t)

	if err := r.Set("user-secret"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := r.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	value, ok := r.Resolve()
	if !ok || value != "env-secret" {
		t.Errorf("Resolve after Clear = (%q, %v), want env-secret", value, ok)
	}
}

func TestClear_Idempotent(t *testing.T) {
	clearEnv(t)
	r := testResolver(t)

	if err := r.Clear(); err != nil {
		t.Errorf("Clear on absent credential: %v", err)
	}
}

func TestResolve_NoCaching(t *testing.T) {
	clearEnv(t)
	r := testResolver(t)

	if r.Present() {
		t.Fatal("expected no credential initially")
	}

	// A set from the settings surface is visible on the next resolution.
	if err := r.Set("fresh"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if value, _ := r.Resolve(); value != "fresh" {
		t.Errorf("Resolve = %q, want fresh", value)
	}
}
