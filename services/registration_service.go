package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arenaops/tournament-registration/events"
	"github.com/arenaops/tournament-registration/models"
	"github.com/arenaops/tournament-registration/repositories"
)

// RegistrationService owns the registration and waitlist allocation flow:
// eligibility checks, the ban screen, the atomic capacity gate, slot and
// waitlist-position assignment, and promotion on cancellation.
type RegistrationService struct {
	txRunner         repositories.TxRunner
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	teamRepo         repositories.TeamRepository
	userRepo         repositories.UserRepository
	banScreen        *BanScreen
	offers           *OfferStore
	publisher        events.Publisher
	logger           *slog.Logger
	now              func() time.Time
}

func NewRegistrationService(
	txRunner repositories.TxRunner,
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	banScreen *BanScreen,
	offers *OfferStore,
	publisher events.Publisher,
	logger *slog.Logger,
) *RegistrationService {
	return &RegistrationService{
		txRunner:         txRunner,
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		teamRepo:         teamRepo,
		userRepo:         userRepo,
		banScreen:        banScreen,
		offers:           offers,
		publisher:        publisher,
		logger:           logger,
		now:              time.Now,
	}
}

// RegisterInput is the payload of one registration attempt.
type RegisterInput struct {
	TournamentID    int
	UserID          int
	TeamID          *int
	SelectedPlayers []int
	BackupPlayers   []int
	JoinWaitlist    bool
	OfferToken      string
}

// Register runs one registration attempt end to end. Eligibility and ban
// checks run outside the lock; only the capacity decision and the insert
// execute inside the atomic region.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*RegistrationResult, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, input.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament: %w", err)
	}

	players, err := s.validateEligibility(ctx, tournament, input)
	if err != nil {
		return nil, err
	}

	if err := s.screenBans(ctx, tournament, input, players); err != nil {
		return nil, err
	}

	// Consume any pending offer before entering the atomic region; the
	// expiring store is an external collaborator and must not be called
	// under the tournament lock.
	if input.JoinWaitlist && input.OfferToken != "" {
		if _, err := s.offers.Consume(ctx, input.TournamentID, input.UserID, input.OfferToken); err != nil {
			s.logger.WarnContext(ctx, "failed to consume waitlist offer",
				slog.Int("tournament_id", input.TournamentID),
				slog.Int("user_id", input.UserID),
				slog.Any("error", err))
		}
	}

	var (
		registration *models.Registration
		offer        *WaitlistOffer
	)

	txErr := s.txRunner.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		locked, err := s.tournamentRepo.LockForRegistration(ctx, tx, input.TournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentLockBusy) {
				return ErrBusy
			}
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return fmt.Errorf("failed to lock tournament: %w", err)
		}

		// Status and window may have changed since the unlocked read.
		if !locked.RegistrationOpenAt(s.now()) {
			return ErrRegistrationNotOpen
		}

		if err := s.checkNotAlreadyRegistered(ctx, tx, locked, input); err != nil {
			return err
		}

		if locked.SlotsRemaining() > 0 {
			registration, err = s.allocateSlot(ctx, tx, locked, input, players)
			return err
		}

		waitlisted, err := s.registrationRepo.CountWaitlisted(ctx, tx, locked.ID)
		if err != nil {
			return err
		}

		available, reason := WaitlistAvailability(s.now(), locked.StartAt, waitlisted, locked.MaxTeams)
		if !available {
			if reason == WaitlistReasonTournamentStarted {
				return ErrWaitlistClosed
			}
			return ErrWaitlistFull
		}

		if !input.JoinWaitlist {
			// Two-phase protocol: never waitlist without explicit opt-in.
			// The token is issued after the transaction ends.
			offer = &WaitlistOffer{
				SlotsTotal:       locked.MaxTeams,
				SlotsTaken:       locked.CurrentTeams,
				WaitlistCapacity: WaitlistCapacity(locked.MaxTeams),
				WaitlistTaken:    waitlisted,
			}
			return nil
		}

		registration, err = s.joinWaitlist(ctx, tx, locked, input, players)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	if offer != nil {
		token, err := s.offers.Issue(ctx, input.TournamentID, input.UserID)
		if err != nil {
			return nil, err
		}
		offer.OfferToken = token
		return &RegistrationResult{Outcome: OutcomeWaitlistOffer, Offer: offer}, nil
	}

	if registration.IsWaitlisted {
		event := events.NewRegistrationEvent(events.EventWaitlistJoined, registration.TournamentID, registration.ID, registration.UserID)
		event.TeamID = registration.TeamID
		event.WaitlistPosition = registration.WaitlistPosition
		s.publisher.PublishRegistrationEvent(event)

		s.logger.InfoContext(ctx, "registration waitlisted",
			slog.Int("tournament_id", registration.TournamentID),
			slog.Int("registration_id", registration.ID),
			slog.Int("position", *registration.WaitlistPosition))
		return &RegistrationResult{Outcome: OutcomeWaitlisted, Registration: registration}, nil
	}

	event := events.NewRegistrationEvent(events.EventRegistrationConfirmed, registration.TournamentID, registration.ID, registration.UserID)
	event.TeamID = registration.TeamID
	event.SlotNumber = registration.SlotNumber
	s.publisher.PublishRegistrationEvent(event)

	s.logger.InfoContext(ctx, "registration confirmed",
		slog.Int("tournament_id", registration.TournamentID),
		slog.Int("registration_id", registration.ID),
		slog.Int("slot_number", *registration.SlotNumber))
	return &RegistrationResult{Outcome: OutcomeConfirmed, Registration: registration}, nil
}

// validateEligibility runs the read-only format checks and returns the
// player rows to persist with the registration.
func (s *RegistrationService) validateEligibility(ctx context.Context, tournament *models.Tournament, input RegisterInput) ([]models.RegistrationPlayer, error) {
	if !tournament.RegistrationOpenAt(s.now()) {
		return nil, ErrRegistrationNotOpen
	}

	if _, err := s.userRepo.GetByID(ctx, input.UserID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load acting user: %w", err)
	}

	// The acting user must hold an identity for the tournament's game.
	if _, err := s.userRepo.GetGameIdentity(ctx, input.UserID, tournament.GameType); err != nil {
		if errors.Is(err, repositories.ErrGameIdentityNotFound) {
			return nil, ErrMissingGameIdentity
		}
		return nil, fmt.Errorf("failed to load game identity: %w", err)
	}

	if !tournament.Format.IsTeamFormat() {
		if input.TeamID != nil {
			return nil, ErrTeamNotAllowed
		}
		if len(input.SelectedPlayers) > 0 || len(input.BackupPlayers) > 0 {
			return nil, ErrInvalidPlayerSelection
		}
		return nil, nil
	}

	if input.TeamID == nil {
		return nil, ErrTeamRequired
	}

	team, err := s.teamRepo.GetWithMembers(ctx, *input.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	if team.GameType != tournament.GameType {
		return nil, ErrTeamGameMismatch
	}
	if !team.HasActiveMember(input.UserID) {
		return nil, ErrNotTeamMember
	}

	return buildPlayerRows(tournament.Format, team, input.SelectedPlayers, input.BackupPlayers)
}

// buildPlayerRows validates the player selection against the format and
// roster and produces the ordered association rows. Backup players default
// to the remaining active roster when not given explicitly.
func buildPlayerRows(format models.TournamentFormat, team *models.Team, selected, backups []int) ([]models.RegistrationPlayer, error) {
	want := format.SelectedPlayerCount()
	if len(selected) != want {
		return nil, fmt.Errorf("%w: need exactly %d selected players, got %d", ErrInvalidPlayerSelection, want, len(selected))
	}

	seen := make(map[int]bool, len(selected))
	for _, userID := range selected {
		if seen[userID] {
			return nil, fmt.Errorf("%w: duplicate player %d", ErrInvalidPlayerSelection, userID)
		}
		if !team.HasActiveMember(userID) {
			return nil, fmt.Errorf("%w: player %d is not an active team member", ErrInvalidPlayerSelection, userID)
		}
		seen[userID] = true
	}

	if len(backups) == 0 {
		// Backups default to the roster minus the selected set.
		for _, memberID := range team.ActiveMemberIDs() {
			if !seen[memberID] {
				backups = append(backups, memberID)
			}
		}
	} else {
		for _, userID := range backups {
			if seen[userID] {
				return nil, fmt.Errorf("%w: player %d is both selected and backup", ErrInvalidPlayerSelection, userID)
			}
			if !team.HasActiveMember(userID) {
				return nil, fmt.Errorf("%w: backup %d is not an active team member", ErrInvalidPlayerSelection, userID)
			}
			seen[userID] = true
		}
	}

	players := make([]models.RegistrationPlayer, 0, len(selected)+len(backups))
	for i, userID := range selected {
		players = append(players, models.RegistrationPlayer{UserID: userID, Role: models.PlayerRoleSelected, Position: i + 1})
	}
	for i, userID := range backups {
		players = append(players, models.RegistrationPlayer{UserID: userID, Role: models.PlayerRoleBackup, Position: i + 1})
	}
	return players, nil
}

// screenBans checks the acting user's identity and every selected player's
// identity against the ban list.
func (s *RegistrationService) screenBans(ctx context.Context, tournament *models.Tournament, input RegisterInput, players []models.RegistrationPlayer) error {
	userIDs := []int{input.UserID}
	for _, p := range players {
		if p.Role == models.PlayerRoleSelected && p.UserID != input.UserID {
			userIDs = append(userIDs, p.UserID)
		}
	}

	identities, err := s.userRepo.ListGameIdentities(ctx, userIDs, tournament.GameType)
	if err != nil {
		return fmt.Errorf("failed to load game identities for ban screen: %w", err)
	}

	checks := make([]IdentityCheck, 0, len(userIDs))
	for _, userID := range userIDs {
		identity, ok := identities[userID]
		if !ok {
			// Teammates without a stored identity cannot be screened;
			// the registrant's own identity was already required.
			continue
		}
		checks = append(checks, IdentityCheck{
			UserID:   userID,
			GameID:   identity.GameID,
			GameType: identity.GameType,
		})
	}
	return s.banScreen.Screen(ctx, checks)
}

func (s *RegistrationService) checkNotAlreadyRegistered(ctx context.Context, tx repositories.SQLExecutor, tournament *models.Tournament, input RegisterInput) error {
	var existing *models.Registration
	var err error
	if tournament.Format.IsTeamFormat() {
		existing, err = s.registrationRepo.FindActiveByTeam(ctx, tx, tournament.ID, *input.TeamID)
	} else {
		existing, err = s.registrationRepo.FindActiveByUser(ctx, tx, tournament.ID, input.UserID)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check existing registration: %w", err)
	}
	if existing.IsWaitlisted {
		return ErrAlreadyWaitlisted
	}
	return ErrAlreadyRegistered
}

// allocateSlot assigns the next sequential slot number and increments the
// capacity counter, all inside the caller's transaction.
func (s *RegistrationService) allocateSlot(ctx context.Context, tx repositories.SQLExecutor, tournament *models.Tournament, input RegisterInput, players []models.RegistrationPlayer) (*models.Registration, error) {
	slot, err := s.registrationRepo.NextSlotNumber(ctx, tx, tournament.ID)
	if err != nil {
		return nil, err
	}

	registration := &models.Registration{
		TournamentID: tournament.ID,
		TeamID:       input.TeamID,
		UserID:       input.UserID,
		Format:       tournament.Format,
		SlotNumber:   &slot,
		Status:       models.RegistrationStatusConfirmed,
		Players:      players,
	}
	if err := s.registrationRepo.Create(ctx, tx, registration); err != nil {
		return nil, mapRegistrationRepoError(err)
	}
	if err := s.tournamentRepo.IncrementCurrentTeams(ctx, tx, tournament.ID); err != nil {
		return nil, err
	}
	return registration, nil
}

// joinWaitlist assigns the next FIFO position inside the caller's
// transaction. The capacity counter is untouched: waitlisted entries do
// not hold a slot.
func (s *RegistrationService) joinWaitlist(ctx context.Context, tx repositories.SQLExecutor, tournament *models.Tournament, input RegisterInput, players []models.RegistrationPlayer) (*models.Registration, error) {
	position, err := s.registrationRepo.NextWaitlistPosition(ctx, tx, tournament.ID)
	if err != nil {
		return nil, err
	}

	registration := &models.Registration{
		TournamentID:     tournament.ID,
		TeamID:           input.TeamID,
		UserID:           input.UserID,
		Format:           tournament.Format,
		IsWaitlisted:     true,
		WaitlistPosition: &position,
		Status:           models.RegistrationStatusRegistered,
		Players:          players,
	}
	if err := s.registrationRepo.Create(ctx, tx, registration); err != nil {
		return nil, mapRegistrationRepoError(err)
	}
	return registration, nil
}

// Cancel transitions the registration to cancelled. Cancelling a confirmed
// entry frees its slot and synchronously promotes the earliest waitlisted
// entry, inside the same atomic region.
func (s *RegistrationService) Cancel(ctx context.Context, registrationID, actingUserID int) error {
	existing, err := s.registrationRepo.FindByID(ctx, nil, registrationID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("failed to load registration: %w", err)
	}

	if err := s.authorizeRegistrationAction(ctx, existing, actingUserID); err != nil {
		return err
	}

	var promoted *models.Registration

	txErr := s.txRunner.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		if _, err := s.tournamentRepo.LockForRegistration(ctx, tx, existing.TournamentID); err != nil {
			if errors.Is(err, repositories.ErrTournamentLockBusy) {
				return ErrBusy
			}
			return fmt.Errorf("failed to lock tournament: %w", err)
		}

		registration, err := s.registrationRepo.LockByID(ctx, tx, registrationID)
		if err != nil {
			return fmt.Errorf("failed to lock registration: %w", err)
		}
		if registration.Status == models.RegistrationStatusCancelled {
			return ErrAlreadyCancelled
		}
		wasConfirmed := registration.Confirmed()

		if err := s.registrationRepo.UpdateStatus(ctx, tx, registrationID, models.RegistrationStatusCancelled); err != nil {
			return err
		}
		if !wasConfirmed {
			return nil
		}

		// Freed slot: decrement the counter, then hand the slot to the
		// earliest waitlisted entry if one exists.
		if err := s.tournamentRepo.DecrementCurrentTeams(ctx, tx, existing.TournamentID); err != nil {
			return err
		}

		next, err := s.registrationRepo.FirstWaitlisted(ctx, tx, existing.TournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrRegistrationNotFound) {
				return nil
			}
			return err
		}

		slot, err := s.registrationRepo.NextSlotNumber(ctx, tx, existing.TournamentID)
		if err != nil {
			return err
		}
		if err := s.registrationRepo.Promote(ctx, tx, next.ID, slot); err != nil {
			return err
		}
		if err := s.tournamentRepo.IncrementCurrentTeams(ctx, tx, existing.TournamentID); err != nil {
			return err
		}

		next.IsWaitlisted = false
		next.WaitlistPosition = nil
		next.SlotNumber = &slot
		next.Status = models.RegistrationStatusConfirmed
		promoted = next
		return nil
	})
	if txErr != nil {
		return txErr
	}

	event := events.NewRegistrationEvent(events.EventRegistrationCancelled, existing.TournamentID, existing.ID, existing.UserID)
	event.TeamID = existing.TeamID
	s.publisher.PublishRegistrationEvent(event)

	if promoted != nil {
		promotedEvent := events.NewRegistrationEvent(events.EventWaitlistPromoted, promoted.TournamentID, promoted.ID, promoted.UserID)
		promotedEvent.TeamID = promoted.TeamID
		promotedEvent.SlotNumber = promoted.SlotNumber
		s.publisher.PublishRegistrationEvent(promotedEvent)

		s.logger.InfoContext(ctx, "waitlist entry promoted",
			slog.Int("tournament_id", promoted.TournamentID),
			slog.Int("registration_id", promoted.ID),
			slog.Int("slot_number", *promoted.SlotNumber))
	}
	return nil
}

// CheckIn transitions a confirmed registration to checked_in. Only allowed
// inside the tournament's check-in window, between registration close and
// the tournament start.
func (s *RegistrationService) CheckIn(ctx context.Context, registrationID, actingUserID int) (*models.Registration, error) {
	existing, err := s.registrationRepo.FindByID(ctx, nil, registrationID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to load registration: %w", err)
	}

	if err := s.authorizeRegistrationAction(ctx, existing, actingUserID); err != nil {
		return nil, err
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, nil, existing.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament: %w", err)
	}
	if !tournament.CheckInOpenAt(s.now()) {
		return nil, ErrCheckInNotAllowed
	}

	var checkedIn *models.Registration
	txErr := s.txRunner.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		registration, err := s.registrationRepo.LockByID(ctx, tx, registrationID)
		if err != nil {
			return fmt.Errorf("failed to lock registration: %w", err)
		}
		switch registration.Status {
		case models.RegistrationStatusCheckedIn:
			return ErrAlreadyCheckedIn
		case models.RegistrationStatusConfirmed:
		default:
			return ErrCheckInNotAllowed
		}

		if err := s.registrationRepo.UpdateStatus(ctx, tx, registrationID, models.RegistrationStatusCheckedIn); err != nil {
			return err
		}
		registration.Status = models.RegistrationStatusCheckedIn
		checkedIn = registration
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return checkedIn, nil
}

// GetWaitlistStatus returns the ordered waitlist with counts and
// remaining capacity.
func (s *RegistrationService) GetWaitlistStatus(ctx context.Context, tournamentID int) (*WaitlistStatus, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament: %w", err)
	}

	entries, err := s.registrationRepo.ListWaitlisted(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}

	capacity := WaitlistCapacity(tournament.MaxTeams)
	remaining := capacity - len(entries)
	if remaining < 0 {
		remaining = 0
	}
	return &WaitlistStatus{
		Entries:           entries,
		Count:             len(entries),
		Capacity:          capacity,
		RemainingCapacity: remaining,
	}, nil
}

// ListConfirmedRegistrations returns confirmed entries ordered by slot
// number, with player rows loaded.
func (s *RegistrationService) ListConfirmedRegistrations(ctx context.Context, tournamentID int) ([]*models.Registration, error) {
	registrations, err := s.registrationRepo.ListConfirmedByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	for _, registration := range registrations {
		if err := s.registrationRepo.LoadPlayers(ctx, nil, registration); err != nil {
			return nil, err
		}
	}
	return registrations, nil
}

// authorizeRegistrationAction permits the registrant, or for team entries
// the team captain, to act on a registration.
func (s *RegistrationService) authorizeRegistrationAction(ctx context.Context, registration *models.Registration, actingUserID int) error {
	if registration.UserID == actingUserID {
		return nil
	}
	if registration.TeamID == nil {
		return ErrForbiddenOperation
	}

	team, err := s.teamRepo.GetByID(ctx, *registration.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrForbiddenOperation
		}
		return fmt.Errorf("failed to load team for authorization: %w", err)
	}
	if team.CaptainID != actingUserID {
		return ErrForbiddenOperation
	}
	return nil
}

func mapRegistrationRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrRegistrationConflict):
		return ErrAlreadyRegistered
	case errors.Is(err, repositories.ErrRegistrationSlotTaken):
		// Lost a seat race to a writer outside the lock; the seat is gone
		// but the waitlist may still be open.
		return ErrTournamentFull
	case errors.Is(err, repositories.ErrRegistrationUserInvalid):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrRegistrationTeamInvalid):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrRegistrationTournamentInvalid):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrRegistrationPlayersInvalid):
		return ErrInvalidPlayerSelection
	default:
		return err
	}
}
