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
	ErrTournamentNotFound = errors.New("tournament not found")
	// ErrTournamentLockBusy means the row lock could not be acquired within
	// lock_timeout. Callers may retry with backoff.
	ErrTournamentLockBusy = errors.New("tournament row is locked by another registration attempt")
)

// pq error code raised when SET LOCAL lock_timeout expires while waiting
// on the FOR UPDATE lock.
const pqLockNotAvailable = "55P03"

type TournamentRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	// LockForRegistration acquires an exclusive row lock on the tournament so
	// concurrent attempts serialize on its capacity fields. The executor must
	// be a transaction; returns ErrTournamentLockBusy if the lock is not
	// acquired within the configured lock_timeout.
	LockForRegistration(ctx context.Context, tx SQLExecutor, id int) (*models.Tournament, error)
	IncrementCurrentTeams(ctx context.Context, exec SQLExecutor, id int) error
	DecrementCurrentTeams(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresTournamentRepository struct {
	db          *sql.DB
	lockTimeout string
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db, lockTimeout: "3s"}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, name, game_type, format, max_teams, current_teams,
	reg_open_at, reg_close_at, start_at, end_at, status, created_at`

func scanTournament(row *sql.Row) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := row.Scan(
		&t.ID, &t.Name, &t.GameType, &t.Format, &t.MaxTeams, &t.CurrentTeams,
		&t.RegOpenAt, &t.RegCloseAt, &t.StartAt, &t.EndAt, &t.Status, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return scanTournament(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) LockForRegistration(ctx context.Context, tx SQLExecutor, id int) (*models.Tournament, error) {
	// SET LOCAL scopes the timeout to this transaction only.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%s'", r.lockTimeout)); err != nil {
		return nil, fmt.Errorf("failed to set lock timeout: %w", err)
	}

	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1 FOR UPDATE`
	t, err := scanTournament(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqLockNotAvailable {
			return nil, ErrTournamentLockBusy
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) IncrementCurrentTeams(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET current_teams = current_teams + 1 WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment current_teams: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) DecrementCurrentTeams(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET current_teams = current_teams - 1 WHERE id = $1 AND current_teams > 0`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to decrement current_teams: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
