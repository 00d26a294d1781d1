package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	StatusDraft        TournamentStatus = "draft"
	StatusRegistration TournamentStatus = "registration"
	StatusActive       TournamentStatus = "active"
	StatusCompleted    TournamentStatus = "completed"
	StatusCanceled     TournamentStatus = "canceled"
)

// TournamentFormat определяет топологию регистрации: соло, дуо или сквад.
type TournamentFormat string

const (
	FormatSolo  TournamentFormat = "solo"
	FormatDuo   TournamentFormat = "duo"
	FormatSquad TournamentFormat = "squad"
)

// SelectedPlayerCount returns the exact number of players a registration
// must select for this format. Solo registrations carry no selection.
func (f TournamentFormat) SelectedPlayerCount() int {
	switch f {
	case FormatDuo:
		return 2
	case FormatSquad:
		return 4
	default:
		return 0
	}
}

func (f TournamentFormat) IsTeamFormat() bool {
	return f == FormatDuo || f == FormatSquad
}

func (f TournamentFormat) Valid() bool {
	switch f {
	case FormatSolo, FormatDuo, FormatSquad:
		return true
	}
	return false
}

// Tournament представляет турнир.
// CurrentTeams денормализовано и обязано совпадать с числом подтверждённых
// (не отменённых, не в листе ожидания) регистраций.
type Tournament struct {
	ID           int              `json:"id" db:"id"`
	Name         string           `json:"name" db:"name"`
	GameType     string           `json:"game_type" db:"game_type"`
	Format       TournamentFormat `json:"format" db:"format"`
	MaxTeams     int              `json:"max_teams" db:"max_teams"`
	CurrentTeams int              `json:"current_teams" db:"current_teams"`
	RegOpenAt    time.Time        `json:"reg_open_at" db:"reg_open_at"`
	RegCloseAt   time.Time        `json:"reg_close_at" db:"reg_close_at"`
	StartAt      time.Time        `json:"start_at" db:"start_at"`
	EndAt        time.Time        `json:"end_at" db:"end_at"`
	Status       TournamentStatus `json:"status" db:"status"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}

// RegistrationOpenAt reports whether the tournament accepts new
// registrations at the given instant.
func (t *Tournament) RegistrationOpenAt(now time.Time) bool {
	if t.Status != StatusRegistration {
		return false
	}
	return !now.Before(t.RegOpenAt) && now.Before(t.RegCloseAt)
}

// CheckInOpenAt reports whether check-in is accepted at the given instant.
// The window opens when registration closes and ends when the tournament
// starts.
func (t *Tournament) CheckInOpenAt(now time.Time) bool {
	return !now.Before(t.RegCloseAt) && now.Before(t.StartAt)
}

// SlotsRemaining returns the number of unclaimed confirmed slots.
func (t *Tournament) SlotsRemaining() int {
	remaining := t.MaxTeams - t.CurrentTeams
	if remaining < 0 {
		return 0
	}
	return remaining
}
