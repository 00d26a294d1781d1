package models

import "time"

// RegistrationStatus представляет статусы регистрации, соответствующие ENUM в БД.
type RegistrationStatus string

const (
	RegistrationStatusRegistered RegistrationStatus = "registered"
	RegistrationStatusConfirmed  RegistrationStatus = "confirmed"
	RegistrationStatusCancelled  RegistrationStatus = "cancelled"
	RegistrationStatusCheckedIn  RegistrationStatus = "checked_in"
)

// PlayerRole определяет роль игрока внутри регистрации.
type PlayerRole string

const (
	PlayerRoleSelected PlayerRole = "selected"
	PlayerRoleBackup   PlayerRole = "backup"
)

// Registration is the persisted record of a slot or waitlist ticket.
// Exactly one of SlotNumber / WaitlistPosition is set for a live entry:
// confirmed entries hold a slot number, waitlisted entries hold a position.
type Registration struct {
	ID               int                  `json:"id" db:"id"`
	TournamentID     int                  `json:"tournament_id" db:"tournament_id"`
	TeamID           *int                 `json:"team_id,omitempty" db:"team_id"`
	UserID           int                  `json:"user_id" db:"user_id"`
	Format           TournamentFormat     `json:"format" db:"format"`
	SlotNumber       *int                 `json:"slot_number,omitempty" db:"slot_number"`
	IsWaitlisted     bool                 `json:"is_waitlisted" db:"is_waitlisted"`
	WaitlistPosition *int                 `json:"waitlist_position,omitempty" db:"waitlist_position"`
	Status           RegistrationStatus   `json:"status" db:"status"`
	RegisteredAt     time.Time            `json:"registered_at" db:"registered_at"`
	Players          []RegistrationPlayer `json:"players,omitempty" db:"-"`
}

// RegistrationPlayer is one row of the ordered player association.
// Position orders players within their role; the selected set is
// size-bounded by the tournament format.
type RegistrationPlayer struct {
	ID             int        `json:"id" db:"id"`
	RegistrationID int        `json:"registration_id" db:"registration_id"`
	UserID         int        `json:"user_id" db:"user_id"`
	Role           PlayerRole `json:"role" db:"role"`
	Position       int        `json:"position" db:"position"`
}

// Active reports whether the registration still occupies a slot or a
// waitlist ticket.
func (r *Registration) Active() bool {
	return r.Status != RegistrationStatusCancelled
}

// Confirmed reports whether the registration holds a numbered slot.
func (r *Registration) Confirmed() bool {
	return r.Active() && !r.IsWaitlisted
}

// SelectedPlayerIDs returns the ordered user ids of the selected players.
func (r *Registration) SelectedPlayerIDs() []int {
	return r.playerIDs(PlayerRoleSelected)
}

// BackupPlayerIDs returns the ordered user ids of the backup players.
func (r *Registration) BackupPlayerIDs() []int {
	return r.playerIDs(PlayerRoleBackup)
}

func (r *Registration) playerIDs(role PlayerRole) []int {
	ids := make([]int, 0, len(r.Players))
	for _, p := range r.Players {
		if p.Role == role {
			ids = append(ids, p.UserID)
		}
	}
	return ids
}
