package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSelectedPlayerCount(t *testing.T) {
	assert.Equal(t, 0, FormatSolo.SelectedPlayerCount())
	assert.Equal(t, 2, FormatDuo.SelectedPlayerCount())
	assert.Equal(t, 4, FormatSquad.SelectedPlayerCount())
}

func TestRegistrationOpenAt(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tournament := &Tournament{
		Status:     StatusRegistration,
		RegOpenAt:  now.Add(-time.Hour),
		RegCloseAt: now.Add(time.Hour),
	}

	assert.True(t, tournament.RegistrationOpenAt(now))
	assert.True(t, tournament.RegistrationOpenAt(tournament.RegOpenAt), "window opens inclusively")
	assert.False(t, tournament.RegistrationOpenAt(tournament.RegCloseAt), "window closes exclusively")
	assert.False(t, tournament.RegistrationOpenAt(now.Add(-2*time.Hour)))

	tournament.Status = StatusDraft
	assert.False(t, tournament.RegistrationOpenAt(now))
}

func TestCheckInOpenAt(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tournament := &Tournament{
		RegCloseAt: now.Add(time.Hour),
		StartAt:    now.Add(2 * time.Hour),
	}

	assert.False(t, tournament.CheckInOpenAt(now), "closed while registration is still open")
	assert.True(t, tournament.CheckInOpenAt(tournament.RegCloseAt), "opens inclusively at registration close")
	assert.True(t, tournament.CheckInOpenAt(now.Add(90*time.Minute)))
	assert.False(t, tournament.CheckInOpenAt(tournament.StartAt), "closes exclusively at start")
	assert.False(t, tournament.CheckInOpenAt(now.Add(24*time.Hour)))
}

func TestSlotsRemaining(t *testing.T) {
	tournament := &Tournament{MaxTeams: 10, CurrentTeams: 4}
	assert.Equal(t, 6, tournament.SlotsRemaining())

	tournament.CurrentTeams = 10
	assert.Equal(t, 0, tournament.SlotsRemaining())

	tournament.CurrentTeams = 12
	assert.Equal(t, 0, tournament.SlotsRemaining(), "oversubscribed counter never reports negative slots")
}
