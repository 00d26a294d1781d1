package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arenaops/tournament-registration/models"
)

var ErrBanNotFound = errors.New("banned identity not found")

type BanRepository interface {
	// FindByIdentity returns the ban record for the (game_id, game_type)
	// pair, or ErrBanNotFound. Expiry is not evaluated here; callers decide
	// whether a time-bounded ban is still in force.
	FindByIdentity(ctx context.Context, gameID, gameType string) (*models.BannedIdentity, error)
}

type postgresBanRepository struct {
	db *sql.DB
}

func NewPostgresBanRepository(db *sql.DB) BanRepository {
	return &postgresBanRepository{db: db}
}

func (r *postgresBanRepository) FindByIdentity(ctx context.Context, gameID, gameType string) (*models.BannedIdentity, error) {
	query := `
		SELECT id, game_id, game_type, reason, expires_at, created_at
		FROM banned_identities
		WHERE game_id = $1 AND game_type = $2`

	b := &models.BannedIdentity{}
	err := r.db.QueryRowContext(ctx, query, gameID, gameType).Scan(
		&b.ID, &b.GameID, &b.GameType, &b.Reason, &b.ExpiresAt, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBanNotFound
		}
		return nil, fmt.Errorf("failed to find banned identity: %w", err)
	}
	return b, nil
}
