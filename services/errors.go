package services

import (
	"errors"
	"fmt"
	"time"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден
	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrRegistrationNotFound = errors.New("registration not found")

	// Ошибки валидации и бизнес-правил (не повторяемые)
	ErrValidationFailed       = errors.New("validation failed")
	ErrRegistrationNotOpen    = errors.New("tournament registration is not open")
	ErrMissingGameIdentity    = errors.New("user has no stored game identity for this game")
	ErrInvalidPlayerSelection = errors.New("selected players do not match the tournament format")
	ErrTeamRequired           = errors.New("team is required for this tournament format")
	ErrTeamNotAllowed         = errors.New("team registration is not allowed for solo tournaments")
	ErrNotTeamMember          = errors.New("acting user is not an active member of the team")
	ErrTeamGameMismatch       = errors.New("team is rostered for a different game")

	// Идемпотентность
	ErrAlreadyRegistered = errors.New("user or team already holds an active registration for this tournament")
	ErrAlreadyWaitlisted = errors.New("user or team is already on the waitlist for this tournament")
	ErrAlreadyCancelled  = errors.New("registration is already cancelled")
	ErrAlreadyCheckedIn  = errors.New("registration is already checked in")

	// Вместимость
	ErrTournamentFull = errors.New("tournament registration is full")
	ErrWaitlistFull   = errors.New("waitlist is full")
	ErrWaitlistClosed = errors.New("waitlist is closed: tournament has started")

	// Баны
	ErrBannedIdentity = errors.New("game identity is banned")

	// Конкурентный доступ: блокировка не получена вовремя, можно повторить.
	ErrBusy = errors.New("registration is busy, retry later")

	// Права
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
	ErrCheckInNotAllowed  = errors.New("check-in is not allowed for this registration")
)

// BannedPlayerError identifies which player of a registration attempt is
// banned. When the banned identity belongs to a teammate rather than the
// registrant, GameID names that player.
type BannedPlayerError struct {
	UserID    int
	GameID    string
	Reason    string
	ExpiresAt *time.Time
}

func (e *BannedPlayerError) Error() string {
	if e.ExpiresAt != nil {
		return fmt.Sprintf("player %s is banned until %s: %s", e.GameID, e.ExpiresAt.Format(time.RFC3339), e.Reason)
	}
	return fmt.Sprintf("player %s is permanently banned: %s", e.GameID, e.Reason)
}

// Is lets errors.Is(err, ErrBannedIdentity) match any banned-player error.
func (e *BannedPlayerError) Is(target error) bool {
	return target == ErrBannedIdentity
}
