package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arenaops/tournament-registration/models"
	"github.com/arenaops/tournament-registration/repositories"
	"github.com/arenaops/tournament-registration/storage"
)

// RosterArchiveService writes a JSON snapshot of a tournament's confirmed
// roster to object storage for retention.
type RosterArchiveService struct {
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	uploader         storage.ObjectUploader
	logger           *slog.Logger
	now              func() time.Time
}

func NewRosterArchiveService(
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	uploader storage.ObjectUploader,
	logger *slog.Logger,
) *RosterArchiveService {
	return &RosterArchiveService{
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		uploader:         uploader,
		logger:           logger,
		now:              time.Now,
	}
}

// RosterSnapshot is the archived document shape.
type RosterSnapshot struct {
	TournamentID  int                     `json:"tournament_id"`
	Name          string                  `json:"name"`
	Format        models.TournamentFormat `json:"format"`
	MaxTeams      int                     `json:"max_teams"`
	CurrentTeams  int                     `json:"current_teams"`
	ArchivedAt    time.Time               `json:"archived_at"`
	Registrations []*models.Registration  `json:"registrations"`
}

// Archive uploads the snapshot and returns its storage location.
func (s *RosterArchiveService) Archive(ctx context.Context, tournamentID int) (*storage.UploadResult, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament: %w", err)
	}

	registrations, err := s.registrationRepo.ListConfirmedByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	for _, registration := range registrations {
		if err := s.registrationRepo.LoadPlayers(ctx, nil, registration); err != nil {
			return nil, err
		}
	}

	snapshot := RosterSnapshot{
		TournamentID:  tournament.ID,
		Name:          tournament.Name,
		Format:        tournament.Format,
		MaxTeams:      tournament.MaxTeams,
		CurrentTeams:  tournament.CurrentTeams,
		ArchivedAt:    s.now().UTC(),
		Registrations: registrations,
	}

	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal roster snapshot: %w", err)
	}

	key := fmt.Sprintf("rosters/tournament_%d_%s.json", tournament.ID, snapshot.ArchivedAt.Format("20060102T150405Z"))
	result, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to upload roster snapshot: %w", err)
	}

	s.logger.InfoContext(ctx, "roster snapshot archived",
		slog.Int("tournament_id", tournament.ID),
		slog.String("key", result.Key))
	return result, nil
}
