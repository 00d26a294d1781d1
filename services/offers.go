package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arenaops/tournament-registration/kvstore"
	"github.com/google/uuid"
)

// OfferStore holds pending waitlist offers in an expiring key-value store.
// An offer links the two phases of the waitlist protocol: capacity refusal
// first, explicit opt-in second. Offers lapse on their own; an expired
// offer never blocks an explicit JoinWaitlist request.
type OfferStore struct {
	store kvstore.Expiring
	ttl   time.Duration
}

const DefaultOfferTTL = 5 * time.Minute

func NewOfferStore(store kvstore.Expiring, ttl time.Duration) *OfferStore {
	if ttl <= 0 {
		ttl = DefaultOfferTTL
	}
	return &OfferStore{store: store, ttl: ttl}
}

func offerKey(tournamentID, userID int) string {
	return fmt.Sprintf("waitlist_offer:%d:%d", tournamentID, userID)
}

// Issue stores a fresh offer token for the (tournament, user) pair and
// returns it. Re-issuing overwrites any previous offer.
func (s *OfferStore) Issue(ctx context.Context, tournamentID, userID int) (string, error) {
	token := uuid.NewString()
	if err := s.store.Set(ctx, offerKey(tournamentID, userID), token, s.ttl); err != nil {
		return "", fmt.Errorf("failed to store waitlist offer: %w", err)
	}
	return token, nil
}

// Consume deletes the pending offer and reports whether the presented
// token matched a live one.
func (s *OfferStore) Consume(ctx context.Context, tournamentID, userID int, token string) (bool, error) {
	key := offerKey(tournamentID, userID)
	stored, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read waitlist offer: %w", err)
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return false, fmt.Errorf("failed to delete waitlist offer: %w", err)
	}
	return stored == token && token != "", nil
}
