package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arenaops/tournament-registration/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrGameIdentityNotFound = errors.New("game identity not found")
)

type UserRepository interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	// GetGameIdentity returns the user's stored identifier for the game,
	// or ErrGameIdentityNotFound.
	GetGameIdentity(ctx context.Context, userID int, gameType string) (*models.GameIdentity, error)
	// ListGameIdentities returns identities for the given users in one
	// query; users without a stored identifier are absent from the map.
	ListGameIdentities(ctx context.Context, userIDs []int, gameType string) (map[int]*models.GameIdentity, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT id, nickname, email, created_at FROM users WHERE id = $1`
	u := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Nickname, &u.Email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *postgresUserRepository) GetGameIdentity(ctx context.Context, userID int, gameType string) (*models.GameIdentity, error) {
	query := `
		SELECT id, user_id, game_type, game_id, created_at
		FROM game_identities
		WHERE user_id = $1 AND game_type = $2`

	gi := &models.GameIdentity{}
	err := r.db.QueryRowContext(ctx, query, userID, gameType).Scan(
		&gi.ID, &gi.UserID, &gi.GameType, &gi.GameID, &gi.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameIdentityNotFound
		}
		return nil, fmt.Errorf("failed to get game identity: %w", err)
	}
	return gi, nil
}

func (r *postgresUserRepository) ListGameIdentities(ctx context.Context, userIDs []int, gameType string) (map[int]*models.GameIdentity, error) {
	if len(userIDs) == 0 {
		return map[int]*models.GameIdentity{}, nil
	}

	query := `
		SELECT id, user_id, game_type, game_id, created_at
		FROM game_identities
		WHERE user_id = ANY($1) AND game_type = $2`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(userIDs), gameType)
	if err != nil {
		return nil, fmt.Errorf("failed to list game identities: %w", err)
	}
	defer rows.Close()

	identities := make(map[int]*models.GameIdentity, len(userIDs))
	for rows.Next() {
		gi := &models.GameIdentity{}
		if err := rows.Scan(&gi.ID, &gi.UserID, &gi.GameType, &gi.GameID, &gi.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan game identity row: %w", err)
		}
		identities[gi.UserID] = gi
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game identity rows: %w", err)
	}
	return identities, nil
}
