package services

import (
	"context"
	"testing"
	"time"

	"github.com/arenaops/tournament-registration/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferStoreIssueAndConsume(t *testing.T) {
	store := NewOfferStore(kvstore.NewMemoryStore(), time.Minute)
	ctx := context.Background()

	token, err := store.Issue(ctx, 1, 42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	matched, err := store.Consume(ctx, 1, 42, token)
	require.NoError(t, err)
	assert.True(t, matched)

	// Second consume of the same token finds nothing.
	matched, err = store.Consume(ctx, 1, 42, token)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestOfferStoreWrongTokenInvalidatesOffer(t *testing.T) {
	store := NewOfferStore(kvstore.NewMemoryStore(), time.Minute)
	ctx := context.Background()

	token, err := store.Issue(ctx, 1, 42)
	require.NoError(t, err)

	matched, err := store.Consume(ctx, 1, 42, "not-the-token")
	require.NoError(t, err)
	assert.False(t, matched)

	// Presenting a wrong token burns the stored offer.
	matched, err = store.Consume(ctx, 1, 42, token)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestOfferStoreReissueOverwrites(t *testing.T) {
	store := NewOfferStore(kvstore.NewMemoryStore(), time.Minute)
	ctx := context.Background()

	first, err := store.Issue(ctx, 1, 42)
	require.NoError(t, err)
	second, err := store.Issue(ctx, 1, 42)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	matched, err := store.Consume(ctx, 1, 42, first)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestOfferStoreMissingOffer(t *testing.T) {
	store := NewOfferStore(kvstore.NewMemoryStore(), time.Minute)

	matched, err := store.Consume(context.Background(), 1, 42, "anything")
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestOfferStoreDefaultTTL(t *testing.T) {
	store := NewOfferStore(kvstore.NewMemoryStore(), 0)
	assert.Equal(t, DefaultOfferTTL, store.ttl)
}
