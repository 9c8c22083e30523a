package db

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestInit_CreatesDatabase(t *testing.T) {
	tmpDir := t.TempDir()

	database, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	if _, err := os.Stat(filepath.Join(tmpDir, "kinsfolk.db")); err != nil {
		t.Errorf("database file not created: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "exports")); err != nil {
		t.Errorf("exports directory not created: %v", err)
	}

	version, err := GetUserVersion(database)
	if err != nil {
		t.Fatalf("GetUserVersion failed: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, CurrentSchemaVersion)
	}
}

func TestInit_Idempotent(t *testing.T) {
	tmpDir := t.TempDir()

	database, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("first Init failed: %v", err)
	}
	database.Close()

	database, err = Init(tmpDir)
	if err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
	defer database.Close()
}

func TestSettings_RoundTrip(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	now := time.Now().Unix()

	if err := SetSetting(database, KeyAICredential, "AIzaSy-test", now); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}

	value, ok, err := GetSetting(database, KeyAICredential)
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if !ok {
		t.Fatal("expected setting to exist")
	}
	if value != "AIzaSy-test" {
		t.Errorf("value = %q, want %q", value, "AIzaSy-test")
	}
}

func TestSettings_Replace(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	now := time.Now().Unix()
	if err := SetSetting(database, KeyFamilyRoster, "[]", now); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if err := SetSetting(database, KeyFamilyRoster, `[{"id":"x"}]`, now+1); err != nil {
		t.Fatalf("SetSetting replace failed: %v", err)
	}

	value, ok, err := GetSetting(database, KeyFamilyRoster)
	if err != nil || !ok {
		t.Fatalf("GetSetting failed: value=%q ok=%v err=%v", value, ok, err)
	}
	if value != `[{"id":"x"}]` {
		t.Errorf("value = %q, want replaced value", value)
	}
}

func TestSettings_MissingKey(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	_, ok, err := GetSetting(database, "nonexistent")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if ok {
		t.Error("expected missing key to report ok=false")
	}
}

func TestSettings_Delete(t *testing.T) {
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer database.Close()

	now := time.Now().Unix()
	if err := SetSetting(database, KeyAICredential, "secret", now); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if err := DeleteSetting(database, KeyAICredential); err != nil {
		t.Fatalf("DeleteSetting failed: %v", err)
	}

	_, ok, err := GetSetting(database, KeyAICredential)
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if ok {
		t.Error("expected deleted key to be absent")
	}

	// Deleting again is a no-op, not an error
	if err := DeleteSetting(database, KeyAICredential); err != nil {
		t.Errorf("DeleteSetting on absent key: %v", err)
	}
}
