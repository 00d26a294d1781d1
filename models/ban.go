package models

import "time"

// BannedIdentity is a ban against an in-game identifier. A nil ExpiresAt
// means the ban is permanent; otherwise the ban lapses at that instant.
type BannedIdentity struct {
	ID        int        `json:"id" db:"id"`
	GameID    string     `json:"game_id" db:"game_id"`
	GameType  string     `json:"game_type" db:"game_type"`
	Reason    string     `json:"reason" db:"reason"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// ActiveAt reports whether the ban is in force at the given instant.
func (b *BannedIdentity) ActiveAt(now time.Time) bool {
	return b.ExpiresAt == nil || b.ExpiresAt.After(now)
}
