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
	ErrRegistrationNotFound          = errors.New("registration not found")
	ErrRegistrationConflict          = errors.New("registration conflict: user or team already registered for this tournament")
	ErrRegistrationSlotTaken         = errors.New("registration slot number already taken")
	ErrRegistrationUserInvalid       = errors.New("registration user conflict or invalid")
	ErrRegistrationTeamInvalid       = errors.New("registration team conflict or invalid")
	ErrRegistrationTournamentInvalid = errors.New("registration tournament conflict or invalid")
	ErrRegistrationPlayersInvalid    = errors.New("registration player rows violate format bounds")
)

type RegistrationRepository interface {
	// Create inserts the registration and its player rows. Caller decides
	// whether the entry is confirmed (SlotNumber set) or waitlisted
	// (WaitlistPosition set) before calling.
	Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error
	FindByID(ctx context.Context, exec SQLExecutor, id int) (*models.Registration, error)
	// LockByID reads the registration under FOR UPDATE; used by cancellation
	// so a concurrent promotion cannot observe a half-cancelled entry.
	LockByID(ctx context.Context, tx SQLExecutor, id int) (*models.Registration, error)
	FindActiveByUser(ctx context.Context, exec SQLExecutor, tournamentID, userID int) (*models.Registration, error)
	FindActiveByTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) (*models.Registration, error)
	ListConfirmedByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Registration, error)
	ListWaitlisted(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Registration, error)
	CountWaitlisted(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	NextSlotNumber(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	NextWaitlistPosition(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	// FirstWaitlisted returns the lowest-position waitlisted entry, locked
	// for promotion, or ErrRegistrationNotFound when the waitlist is empty.
	FirstWaitlisted(ctx context.Context, tx SQLExecutor, tournamentID int) (*models.Registration, error)
	// Promote converts a waitlisted entry into a confirmed one: clears the
	// waitlist position and assigns the given slot number.
	Promote(ctx context.Context, exec SQLExecutor, id, slotNumber int) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RegistrationStatus) error
	LoadPlayers(ctx context.Context, exec SQLExecutor, reg *models.Registration) error
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const registrationColumns = `
	id, tournament_id, team_id, user_id, format, slot_number,
	is_waitlisted, waitlist_position, status, registered_at`

func (r *postgresRegistrationRepository) Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO registrations (
			tournament_id, team_id, user_id, format, slot_number,
			is_waitlisted, waitlist_position, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, registered_at`

	err := executor.QueryRowContext(ctx, query,
		reg.TournamentID, reg.TeamID, reg.UserID, reg.Format, reg.SlotNumber,
		reg.IsWaitlisted, reg.WaitlistPosition, reg.Status,
	).Scan(&reg.ID, &reg.RegisteredAt)
	if err != nil {
		return r.handleRegistrationError(err)
	}

	for i := range reg.Players {
		p := &reg.Players[i]
		p.RegistrationID = reg.ID
		insert := `
			INSERT INTO registration_players (registration_id, user_id, role, position)
			VALUES ($1, $2, $3, $4)
			RETURNING id`
		if err := executor.QueryRowContext(ctx, insert, p.RegistrationID, p.UserID, p.Role, p.Position).Scan(&p.ID); err != nil {
			return r.handleRegistrationError(err)
		}
	}
	return nil
}

func scanRegistration(rowScanner interface {
	Scan(dest ...interface{}) error
}, reg *models.Registration) error {
	return rowScanner.Scan(
		&reg.ID, &reg.TournamentID, &reg.TeamID, &reg.UserID, &reg.Format,
		&reg.SlotNumber, &reg.IsWaitlisted, &reg.WaitlistPosition,
		&reg.Status, &reg.RegisteredAt,
	)
}

func (r *postgresRegistrationRepository) findOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.Registration, error) {
	reg := &models.Registration{}
	row := exec.QueryRowContext(ctx, query, args...)
	if err := scanRegistration(row, reg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to find registration: %w", err)
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) FindByID(ctx context.Context, exec SQLExecutor, id int) (*models.Registration, error) {
	query := `SELECT` + registrationColumns + ` FROM registrations WHERE id = $1`
	return r.findOne(ctx, r.getExecutor(exec), query, id)
}

func (r *postgresRegistrationRepository) LockByID(ctx context.Context, tx SQLExecutor, id int) (*models.Registration, error) {
	query := `SELECT` + registrationColumns + ` FROM registrations WHERE id = $1 FOR UPDATE`
	return r.findOne(ctx, tx, query, id)
}

func (r *postgresRegistrationRepository) FindActiveByUser(ctx context.Context, exec SQLExecutor, tournamentID, userID int) (*models.Registration, error) {
	query := `SELECT` + registrationColumns + `
		FROM registrations
		WHERE tournament_id = $1 AND user_id = $2 AND status <> 'cancelled'`
	return r.findOne(ctx, r.getExecutor(exec), query, tournamentID, userID)
}

func (r *postgresRegistrationRepository) FindActiveByTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) (*models.Registration, error) {
	query := `SELECT` + registrationColumns + `
		FROM registrations
		WHERE tournament_id = $1 AND team_id = $2 AND status <> 'cancelled'`
	return r.findOne(ctx, r.getExecutor(exec), query, tournamentID, teamID)
}

func (r *postgresRegistrationRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Registration, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	registrations := make([]*models.Registration, 0)
	for rows.Next() {
		reg := &models.Registration{}
		if err := scanRegistration(rows, reg); err != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", err)
		}
		registrations = append(registrations, reg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration rows: %w", err)
	}
	return registrations, nil
}

func (r *postgresRegistrationRepository) ListConfirmedByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Registration, error) {
	query := `SELECT` + registrationColumns + `
		FROM registrations
		WHERE tournament_id = $1 AND is_waitlisted = false AND status <> 'cancelled'
		ORDER BY slot_number ASC`
	return r.list(ctx, r.getExecutor(exec), query, tournamentID)
}

func (r *postgresRegistrationRepository) ListWaitlisted(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Registration, error) {
	query := `SELECT` + registrationColumns + `
		FROM registrations
		WHERE tournament_id = $1 AND is_waitlisted = true AND status <> 'cancelled'
		ORDER BY waitlist_position ASC`
	return r.list(ctx, r.getExecutor(exec), query, tournamentID)
}

func (r *postgresRegistrationRepository) CountWaitlisted(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT COUNT(*) FROM registrations
		WHERE tournament_id = $1 AND is_waitlisted = true AND status <> 'cancelled'`
	var count int
	if err := executor.QueryRowContext(ctx, query, tournamentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count waitlisted registrations: %w", err)
	}
	return count, nil
}

// NextSlotNumber computes max(slot_number)+1 over live confirmed entries.
// Cancelled entries keep their number but stop counting, so the slot freed
// by cancelling the highest entry is handed out again while mid-list gaps
// stay as they are. Uniqueness among live entries is enforced by the
// partial unique index registrations_tournament_slot_key.
func (r *postgresRegistrationRepository) NextSlotNumber(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT COALESCE(MAX(slot_number), 0) + 1 FROM registrations
		WHERE tournament_id = $1 AND slot_number IS NOT NULL AND status <> 'cancelled'`
	var next int
	if err := executor.QueryRowContext(ctx, query, tournamentID).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to compute next slot number: %w", err)
	}
	return next, nil
}

// NextWaitlistPosition computes max(waitlist_position)+1 over all entries
// that ever held a ticket. Positions are FIFO tickets and are never
// compacted after promotions.
func (r *postgresRegistrationRepository) NextWaitlistPosition(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT COALESCE(MAX(waitlist_position), 0) + 1 FROM registrations
		WHERE tournament_id = $1 AND waitlist_position IS NOT NULL`
	var next int
	if err := executor.QueryRowContext(ctx, query, tournamentID).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to compute next waitlist position: %w", err)
	}
	return next, nil
}

func (r *postgresRegistrationRepository) FirstWaitlisted(ctx context.Context, tx SQLExecutor, tournamentID int) (*models.Registration, error) {
	query := `SELECT` + registrationColumns + `
		FROM registrations
		WHERE tournament_id = $1 AND is_waitlisted = true AND status <> 'cancelled'
		ORDER BY waitlist_position ASC
		LIMIT 1
		FOR UPDATE`
	return r.findOne(ctx, tx, query, tournamentID)
}

func (r *postgresRegistrationRepository) Promote(ctx context.Context, exec SQLExecutor, id, slotNumber int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE registrations
		SET is_waitlisted = false, waitlist_position = NULL, slot_number = $1, status = 'confirmed'
		WHERE id = $2 AND is_waitlisted = true AND status <> 'cancelled'`
	result, err := executor.ExecContext(ctx, query, slotNumber, id)
	if err != nil {
		return r.handleRegistrationError(err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RegistrationStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE registrations SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update registration status: %w", err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) LoadPlayers(ctx context.Context, exec SQLExecutor, reg *models.Registration) error {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, registration_id, user_id, role, position
		FROM registration_players
		WHERE registration_id = $1
		ORDER BY role, position ASC`

	rows, err := executor.QueryContext(ctx, query, reg.ID)
	if err != nil {
		return fmt.Errorf("failed to load registration players: %w", err)
	}
	defer rows.Close()

	players := make([]models.RegistrationPlayer, 0)
	for rows.Next() {
		var p models.RegistrationPlayer
		if err := rows.Scan(&p.ID, &p.RegistrationID, &p.UserID, &p.Role, &p.Position); err != nil {
			return fmt.Errorf("failed to scan registration player row: %w", err)
		}
		players = append(players, p)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating registration player rows: %w", err)
	}
	reg.Players = players
	return nil
}

func (r *postgresRegistrationRepository) handleRegistrationError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505": // unique_violation
			switch pqErr.Constraint {
			case "registrations_active_user_key", "registrations_active_team_key":
				return ErrRegistrationConflict
			case "registrations_tournament_slot_key":
				return ErrRegistrationSlotTaken
			}
		case "23503": // foreign_key_violation
			switch pqErr.Constraint {
			case "registrations_user_id_fkey", "registration_players_user_id_fkey":
				return ErrRegistrationUserInvalid
			case "registrations_team_id_fkey":
				return ErrRegistrationTeamInvalid
			case "registrations_tournament_id_fkey":
				return ErrRegistrationTournamentInvalid
			}
		case "23514": // check_violation
			if pqErr.Constraint == "chk_registration_player_role" {
				return ErrRegistrationPlayersInvalid
			}
		}
	}
	return fmt.Errorf("failed to persist registration: %w", err)
}
