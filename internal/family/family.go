package family

import (
	"encoding/json"
	"strings"
	"unicode"
)

// Status is a member's contribution indicator for the current capsule cycle.
type Status string

const (
	StatusReady   Status = "ready"
	StatusPending Status = "pending"
	StatusOverdue Status = "overdue"
)

// Valid reports whether s is a known contribution status.
func (s Status) Valid() bool {
	switch s {
	case StatusReady, StatusPending, StatusOverdue:
		return true
	}
	return false
}

// Member represents one family member in the roster.
type Member struct {
	// ID is a ULID that uniquely identifies this member within the roster
	ID string `json:"id"`

	// DisplayName is the member's name as entered
	DisplayName string `json:"display_name"`

	// AvatarLabel is 1-2 uppercase initials derived from DisplayName
	AvatarLabel string `json:"avatar_label"`

	// Status is the member's contribution status for this cycle
	Status Status `json:"status"`
}

// AvatarLabel derives the 1-2 character uppercase label shown in the
// member's avatar circle: the first two characters of the name, or the
// single character for one-character names.
func AvatarLabel(name string) string {
	runes := []rune(strings.TrimSpace(name))
	if len(runes) == 0 {
		return ""
	}
	if len(runes) == 1 {
		return strings.ToUpper(string(runes[0]))
	}
	return strings.ToUpper(string(runes[:2]))
}

// DefaultRoster returns the fixed starter roster used when no persisted
// roster exists or the persisted data fails to parse. The starter labels
// are fixed values, not derived; derivation applies to added and renamed
// members.
func DefaultRoster() []Member {
	return []Member{
		{ID: "starter-sarah", DisplayName: "Sarah (Sister)", AvatarLabel: "S", Status: StatusReady},
		{ID: "starter-maya", DisplayName: "Maya (Girlfriend)", AvatarLabel: "M", Status: StatusPending},
		{ID: "starter-mom", DisplayName: "Mom", AvatarLabel: "Mo", Status: StatusOverdue},
	}
}

// Deserialize parses a persisted roster. It never fails: missing data,
// malformed JSON, or entries without the required fields all fall back to
// the default roster, so callers need no defensive branching.
func Deserialize(raw string) []Member {
	if strings.TrimSpace(raw) == "" {
		return DefaultRoster()
	}

	var members []Member
	if err := json.Unmarshal([]byte(raw), &members); err != nil {
		return DefaultRoster()
	}
	if len(members) == 0 {
		return DefaultRoster()
	}

	for i := range members {
		if members[i].ID == "" || strings.TrimSpace(members[i].DisplayName) == "" {
			return DefaultRoster()
		}
		if !members[i].Status.Valid() {
			members[i].Status = StatusPending
		}
		if members[i].AvatarLabel == "" {
			members[i].AvatarLabel = AvatarLabel(members[i].DisplayName)
		}
	}

	return members
}

// Serialize encodes the roster for the settings store.
func Serialize(members []Member) (string, error) {
	data, err := json.Marshal(members)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// cleanName trims a display name and collapses inner whitespace runs.
func cleanName(name string) string {
	fields := strings.FieldsFunc(name, unicode.IsSpace)
	return strings.Join(fields, " ")
}
