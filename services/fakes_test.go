package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/arenaops/tournament-registration/events"
	"github.com/arenaops/tournament-registration/models"
	"github.com/arenaops/tournament-registration/repositories"
)

// In-memory doubles of the repository interfaces. The fake TxRunner
// serializes transaction bodies with a mutex, mirroring the row lock the
// real capacity gate takes.

type fakeTxRunner struct {
	mu sync.Mutex
}

func (r *fakeTxRunner) RunInTx(_ context.Context, fn func(tx repositories.SQLExecutor) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(nil)
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament)}
}

func (r *fakeTournamentRepo) put(t *models.Tournament) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *t
	r.tournaments[t.ID] = &copied
}

func (r *fakeTournamentRepo) get(id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return r.get(id)
}

func (r *fakeTournamentRepo) LockForRegistration(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return r.get(id)
}

func (r *fakeTournamentRepo) IncrementCurrentTeams(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.CurrentTeams++
	return nil
}

func (r *fakeTournamentRepo) DecrementCurrentTeams(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.CurrentTeams > 0 {
		t.CurrentTeams--
	}
	return nil
}

type fakeRegistrationRepo struct {
	mu            sync.Mutex
	nextID        int
	registrations map[int]*models.Registration
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{registrations: make(map[int]*models.Registration)}
}

func copyRegistration(reg *models.Registration) *models.Registration {
	copied := *reg
	copied.Players = append([]models.RegistrationPlayer(nil), reg.Players...)
	return &copied
}

func (r *fakeRegistrationRepo) Create(_ context.Context, _ repositories.SQLExecutor, reg *models.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	reg.ID = r.nextID
	reg.RegisteredAt = time.Now().UTC()
	for i := range reg.Players {
		reg.Players[i].RegistrationID = reg.ID
	}
	r.registrations[reg.ID] = copyRegistration(reg)
	return nil
}

func (r *fakeRegistrationRepo) FindByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.registrations[id]
	if !ok {
		return nil, repositories.ErrRegistrationNotFound
	}
	return copyRegistration(reg), nil
}

func (r *fakeRegistrationRepo) LockByID(ctx context.Context, tx repositories.SQLExecutor, id int) (*models.Registration, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *fakeRegistrationRepo) FindActiveByUser(_ context.Context, _ repositories.SQLExecutor, tournamentID, userID int) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.registrations {
		if reg.TournamentID == tournamentID && reg.UserID == userID && reg.Status != models.RegistrationStatusCancelled {
			return copyRegistration(reg), nil
		}
	}
	return nil, repositories.ErrRegistrationNotFound
}

func (r *fakeRegistrationRepo) FindActiveByTeam(_ context.Context, _ repositories.SQLExecutor, tournamentID, teamID int) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.registrations {
		if reg.TournamentID == tournamentID && reg.TeamID != nil && *reg.TeamID == teamID && reg.Status != models.RegistrationStatusCancelled {
			return copyRegistration(reg), nil
		}
	}
	return nil, repositories.ErrRegistrationNotFound
}

func (r *fakeRegistrationRepo) ListConfirmedByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	confirmed := make([]*models.Registration, 0)
	for _, reg := range r.registrations {
		if reg.TournamentID == tournamentID && !reg.IsWaitlisted && reg.Status != models.RegistrationStatusCancelled {
			confirmed = append(confirmed, copyRegistration(reg))
		}
	}
	sort.Slice(confirmed, func(i, j int) bool {
		return *confirmed[i].SlotNumber < *confirmed[j].SlotNumber
	})
	return confirmed, nil
}

func (r *fakeRegistrationRepo) ListWaitlisted(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	waitlisted := make([]*models.Registration, 0)
	for _, reg := range r.registrations {
		if reg.TournamentID == tournamentID && reg.IsWaitlisted && reg.Status != models.RegistrationStatusCancelled {
			waitlisted = append(waitlisted, copyRegistration(reg))
		}
	}
	sort.Slice(waitlisted, func(i, j int) bool {
		return *waitlisted[i].WaitlistPosition < *waitlisted[j].WaitlistPosition
	})
	return waitlisted, nil
}

func (r *fakeRegistrationRepo) CountWaitlisted(ctx context.Context, tx repositories.SQLExecutor, tournamentID int) (int, error) {
	waitlisted, err := r.ListWaitlisted(ctx, tx, tournamentID)
	if err != nil {
		return 0, err
	}
	return len(waitlisted), nil
}

func (r *fakeRegistrationRepo) NextSlotNumber(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, reg := range r.registrations {
		if reg.TournamentID == tournamentID && reg.Status != models.RegistrationStatusCancelled &&
			reg.SlotNumber != nil && *reg.SlotNumber > max {
			max = *reg.SlotNumber
		}
	}
	return max + 1, nil
}

func (r *fakeRegistrationRepo) NextWaitlistPosition(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, reg := range r.registrations {
		if reg.TournamentID == tournamentID && reg.WaitlistPosition != nil && *reg.WaitlistPosition > max {
			max = *reg.WaitlistPosition
		}
	}
	return max + 1, nil
}

func (r *fakeRegistrationRepo) FirstWaitlisted(ctx context.Context, tx repositories.SQLExecutor, tournamentID int) (*models.Registration, error) {
	waitlisted, err := r.ListWaitlisted(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	if len(waitlisted) == 0 {
		return nil, repositories.ErrRegistrationNotFound
	}
	return waitlisted[0], nil
}

func (r *fakeRegistrationRepo) Promote(_ context.Context, _ repositories.SQLExecutor, id, slotNumber int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.registrations[id]
	if !ok || !reg.IsWaitlisted || reg.Status == models.RegistrationStatusCancelled {
		return repositories.ErrRegistrationNotFound
	}
	reg.IsWaitlisted = false
	reg.WaitlistPosition = nil
	reg.SlotNumber = &slotNumber
	reg.Status = models.RegistrationStatusConfirmed
	return nil
}

func (r *fakeRegistrationRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.RegistrationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.registrations[id]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	reg.Status = status
	return nil
}

func (r *fakeRegistrationRepo) LoadPlayers(_ context.Context, _ repositories.SQLExecutor, reg *models.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.registrations[reg.ID]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	reg.Players = append([]models.RegistrationPlayer(nil), stored.Players...)
	return nil
}

type fakeTeamRepo struct {
	mu    sync.Mutex
	teams map[int]*models.Team
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[int]*models.Team)}
}

func (r *fakeTeamRepo) put(t *models.Team) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teams[t.ID] = t
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *t
	copied.Members = append([]models.TeamMember(nil), t.Members...)
	return &copied, nil
}

func (r *fakeTeamRepo) GetWithMembers(ctx context.Context, id int) (*models.Team, error) {
	return r.GetByID(ctx, id)
}

type fakeUserRepo struct {
	mu         sync.Mutex
	users      map[int]*models.User
	identities map[int]*models.GameIdentity
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:      make(map[int]*models.User),
		identities: make(map[int]*models.GameIdentity),
	}
}

func (r *fakeUserRepo) putUser(u *models.User, identity *models.GameIdentity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	if identity != nil {
		r.identities[u.ID] = identity
	}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetGameIdentity(_ context.Context, userID int, gameType string) (*models.GameIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	gi, ok := r.identities[userID]
	if !ok || gi.GameType != gameType {
		return nil, repositories.ErrGameIdentityNotFound
	}
	return gi, nil
}

func (r *fakeUserRepo) ListGameIdentities(_ context.Context, userIDs []int, gameType string) (map[int]*models.GameIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	identities := make(map[int]*models.GameIdentity)
	for _, userID := range userIDs {
		if gi, ok := r.identities[userID]; ok && gi.GameType == gameType {
			identities[userID] = gi
		}
	}
	return identities, nil
}

type fakeBanRepo struct {
	mu   sync.Mutex
	bans map[string]*models.BannedIdentity
}

func newFakeBanRepo() *fakeBanRepo {
	return &fakeBanRepo{bans: make(map[string]*models.BannedIdentity)}
}

func (r *fakeBanRepo) put(b *models.BannedIdentity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bans[b.GameID+"/"+b.GameType] = b
}

func (r *fakeBanRepo) FindByIdentity(_ context.Context, gameID, gameType string) (*models.BannedIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bans[gameID+"/"+gameType]
	if !ok {
		return nil, repositories.ErrBanNotFound
	}
	return b, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.RegistrationEvent
}

func (p *fakePublisher) PublishRegistrationEvent(event events.RegistrationEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *fakePublisher) published() []events.RegistrationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.RegistrationEvent(nil), p.events...)
}
