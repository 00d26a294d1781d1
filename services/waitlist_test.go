package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaitlistCapacity(t *testing.T) {
	tests := []struct {
		maxTeams int
		want     int
	}{
		{maxTeams: 1, want: 1},
		{maxTeams: 2, want: 1},
		{maxTeams: 3, want: 1},
		{maxTeams: 4, want: 2},
		{maxTeams: 10, want: 5},
		{maxTeams: 64, want: 32},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WaitlistCapacity(tt.maxTeams), "max_teams=%d", tt.maxTeams)
	}
}

func TestWaitlistAvailability(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(time.Hour)

	available, reason := WaitlistAvailability(now, start, 0, 10)
	assert.True(t, available)
	assert.Equal(t, WaitlistReasonNone, reason)

	available, reason = WaitlistAvailability(now, start, 5, 10)
	assert.False(t, available)
	assert.Equal(t, WaitlistReasonFull, reason)

	// Once the tournament starts the waitlist closes even with room left.
	available, reason = WaitlistAvailability(start, start, 0, 10)
	assert.False(t, available)
	assert.Equal(t, WaitlistReasonTournamentStarted, reason)

	available, reason = WaitlistAvailability(start.Add(time.Minute), start, 0, 10)
	assert.False(t, available)
	assert.Equal(t, WaitlistReasonTournamentStarted, reason)
}
