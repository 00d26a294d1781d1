package services

import "github.com/arenaops/tournament-registration/models"

// RegistrationOutcome tags the result of a registration attempt. Failures
// are ordinary errors; only non-failure outcomes appear here.
type RegistrationOutcome string

const (
	// OutcomeConfirmed: the attempt claimed a numbered slot.
	OutcomeConfirmed RegistrationOutcome = "confirmed"
	// OutcomeWaitlisted: the attempt opted in and received a FIFO ticket.
	OutcomeWaitlisted RegistrationOutcome = "waitlisted"
	// OutcomeWaitlistOffer: capacity is exhausted; the caller may re-invoke
	// with JoinWaitlist=true to claim a ticket. Nothing was persisted.
	OutcomeWaitlistOffer RegistrationOutcome = "waitlist_offer"
)

// WaitlistOffer reports capacity so the caller can decide whether to join
// the waitlist. The token links the follow-up request to this offer and
// expires after a short interval.
type WaitlistOffer struct {
	SlotsTotal       int    `json:"slots_total"`
	SlotsTaken       int    `json:"slots_taken"`
	WaitlistCapacity int    `json:"waitlist_capacity"`
	WaitlistTaken    int    `json:"waitlist_taken"`
	OfferToken       string `json:"offer_token"`
}

// RegistrationResult is the tagged result of RegisterForTournament.
// Registration is set for Confirmed and Waitlisted outcomes; Offer is set
// for WaitlistOffer.
type RegistrationResult struct {
	Outcome      RegistrationOutcome  `json:"outcome"`
	Registration *models.Registration `json:"registration,omitempty"`
	Offer        *WaitlistOffer       `json:"offer,omitempty"`
}

// WaitlistStatus is the ordered view of a tournament's waitlist.
type WaitlistStatus struct {
	Entries           []*models.Registration `json:"entries"`
	Count             int                    `json:"count"`
	Capacity          int                    `json:"capacity"`
	RemainingCapacity int                    `json:"remaining_capacity"`
}
