package capsule

// Photo represents one photo destined for the next family capsule.
// Immutable once created except for deletion.
type Photo struct {
	// ID is a ULID that uniquely identifies this photo within the session
	ID string `json:"id"`

	// SourceRef is a displayable image locator (object URL, file path,
	// or data URI for AI-generated images)
	SourceRef string `json:"source_ref"`

	// Caption is an optional human-readable caption
	Caption string `json:"caption,omitempty"`

	// AddedAt is the Unix timestamp when the photo was added
	AddedAt int64 `json:"added_at"`

	// Contributor is the display name of whoever added the photo
	Contributor string `json:"contributor"`

	// AIGenerated marks photos that came out of the Creative Studio
	AIGenerated bool `json:"ai_generated"`
}

// Stats is the derived gamification snapshot for the current capsule.
// TotalPhotos and GardenLevel are recomputed from the photo collection on
// every mutation; Streak and NextUnlockAt are independent counters whose
// update policy belongs to the capsule delivery scheduler, not this engine.
type Stats struct {
	Streak       int   `json:"streak"`
	NextUnlockAt int64 `json:"next_unlock_at"`
	TotalPhotos  int   `json:"total_photos"`
	GardenLevel  int   `json:"garden_level"`
}

// MaxGardenLevel caps tree growth regardless of photo count.
const MaxGardenLevel = 5

// GardenLevel derives the garden tier from a photo count: the tree levels
// up every 2 photos, capped at MaxGardenLevel.
func GardenLevel(totalPhotos int) int {
	if totalPhotos < 0 {
		totalPhotos = 0
	}
	level := totalPhotos/2 + 1
	if level > MaxGardenLevel {
		return MaxGardenLevel
	}
	return level
}
