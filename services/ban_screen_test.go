package services

import (
	"context"
	"testing"
	"time"

	"github.com/arenaops/tournament-registration/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBanScreen(bans *fakeBanRepo) *BanScreen {
	screen := NewBanScreen(bans)
	screen.now = func() time.Time { return testNow }
	return screen
}

func TestBanScreenStatuses(t *testing.T) {
	bans := newFakeBanRepo()
	expired := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)
	bans.put(&models.BannedIdentity{GameID: "perm", GameType: testGame, Reason: "cheating"})
	bans.put(&models.BannedIdentity{GameID: "temp", GameType: testGame, Reason: "toxicity", ExpiresAt: &future})
	bans.put(&models.BannedIdentity{GameID: "lapsed", GameType: testGame, Reason: "toxicity", ExpiresAt: &expired})

	screen := newTestBanScreen(bans)
	statuses, err := screen.Statuses(context.Background(), []IdentityCheck{
		{UserID: 1, GameID: "perm", GameType: testGame},
		{UserID: 2, GameID: "temp", GameType: testGame},
		{UserID: 3, GameID: "lapsed", GameType: testGame},
		{UserID: 4, GameID: "clean", GameType: testGame},
	})
	require.NoError(t, err)
	require.Len(t, statuses, 4)

	assert.True(t, statuses[0].Banned)
	assert.True(t, statuses[0].Permanent)
	assert.Equal(t, "cheating", statuses[0].Reason)

	assert.True(t, statuses[1].Banned)
	assert.False(t, statuses[1].Permanent)
	require.NotNil(t, statuses[1].ExpiresAt)

	assert.False(t, statuses[2].Banned, "expired temporary ban must not block")
	assert.False(t, statuses[3].Banned)
}

func TestBanScreenReturnsFirstBannedInCheckOrder(t *testing.T) {
	bans := newFakeBanRepo()
	bans.put(&models.BannedIdentity{GameID: "second", GameType: testGame, Reason: "cheating"})
	bans.put(&models.BannedIdentity{GameID: "third", GameType: testGame, Reason: "smurfing"})

	screen := newTestBanScreen(bans)
	err := screen.Screen(context.Background(), []IdentityCheck{
		{UserID: 1, GameID: "first", GameType: testGame},
		{UserID: 2, GameID: "second", GameType: testGame},
		{UserID: 3, GameID: "third", GameType: testGame},
	})
	require.Error(t, err)

	var bannedErr *BannedPlayerError
	require.ErrorAs(t, err, &bannedErr)
	assert.Equal(t, 2, bannedErr.UserID)
	assert.Equal(t, "second", bannedErr.GameID)
}

func TestBanScreenNoChecks(t *testing.T) {
	screen := newTestBanScreen(newFakeBanRepo())
	assert.NoError(t, screen.Screen(context.Background(), nil))
}
