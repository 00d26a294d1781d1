package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arenaops/tournament-registration/repositories"
	"golang.org/x/sync/errgroup"
)

// IdentityCheck is one (game_id, game_type) pair to screen, tagged with
// the user it belongs to.
type IdentityCheck struct {
	UserID   int
	GameID   string
	GameType string
}

// BanStatus is the screening verdict for one identity.
type BanStatus struct {
	Check     IdentityCheck
	Banned    bool
	Reason    string
	Permanent bool
	ExpiresAt *time.Time
}

// BanScreen answers whether game identities are currently banned. Lookups
// are read-only and run concurrently; no lock is ever held across them.
type BanScreen struct {
	banRepo repositories.BanRepository
	now     func() time.Time
}

func NewBanScreen(banRepo repositories.BanRepository) *BanScreen {
	return &BanScreen{banRepo: banRepo, now: time.Now}
}

// Statuses screens every identity and returns a verdict per check.
// Expired temporary bans report Banned=false.
func (s *BanScreen) Statuses(ctx context.Context, checks []IdentityCheck) ([]BanStatus, error) {
	statuses := make([]BanStatus, len(checks))
	now := s.now()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, check := range checks {
		i, check := i, check // per-iteration capture; required while go.mod targets go < 1.22
		g.Go(func() error {
			ban, err := s.banRepo.FindByIdentity(gctx, check.GameID, check.GameType)
			if err != nil {
				if errors.Is(err, repositories.ErrBanNotFound) {
					mu.Lock()
					statuses[i] = BanStatus{Check: check}
					mu.Unlock()
					return nil
				}
				return fmt.Errorf("failed to screen identity %s: %w", check.GameID, err)
			}

			status := BanStatus{Check: check}
			if ban.ActiveAt(now) {
				status.Banned = true
				status.Reason = ban.Reason
				status.Permanent = ban.ExpiresAt == nil
				status.ExpiresAt = ban.ExpiresAt
			}
			mu.Lock()
			statuses[i] = status
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return statuses, nil
}

// Screen returns a *BannedPlayerError for the first banned identity, in
// check order, or nil when every identity is clear.
func (s *BanScreen) Screen(ctx context.Context, checks []IdentityCheck) error {
	statuses, err := s.Statuses(ctx, checks)
	if err != nil {
		return err
	}
	for _, status := range statuses {
		if status.Banned {
			return &BannedPlayerError{
				UserID:    status.Check.UserID,
				GameID:    status.Check.GameID,
				Reason:    status.Reason,
				ExpiresAt: status.ExpiresAt,
			}
		}
	}
	return nil
}
