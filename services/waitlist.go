package services

import "time"

// waitlistRatio divides max_teams to size the waitlist: a tournament with
// 10 slots keeps a waitlist of 5.
const waitlistRatio = 2

// WaitlistCapacity is the deterministic waitlist sizing policy.
func WaitlistCapacity(maxTeams int) int {
	capacity := maxTeams / waitlistRatio
	if capacity < 1 {
		capacity = 1
	}
	return capacity
}

// WaitlistUnavailableReason is the machine-readable reason the waitlist
// cannot accept an entry.
type WaitlistUnavailableReason string

const (
	WaitlistReasonNone              WaitlistUnavailableReason = ""
	WaitlistReasonTournamentStarted WaitlistUnavailableReason = "tournament_started"
	WaitlistReasonFull              WaitlistUnavailableReason = "waitlist_full"
)

// WaitlistAvailability reports whether the waitlist can accept one more
// entry at the given instant, and why not.
func WaitlistAvailability(now, tournamentStart time.Time, waitlisted, maxTeams int) (bool, WaitlistUnavailableReason) {
	if !now.Before(tournamentStart) {
		return false, WaitlistReasonTournamentStarted
	}
	if waitlisted >= WaitlistCapacity(maxTeams) {
		return false, WaitlistReasonFull
	}
	return true, WaitlistReasonNone
}
