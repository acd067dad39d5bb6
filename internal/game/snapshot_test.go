// internal/game/snapshot_test.go
package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/playdeck/uno/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSnapshotIsDeepCopy mutates the live game after snapshotting and checks
// the snapshot is unaffected.
func TestSnapshotIsDeepCopy(t *testing.T) {
	hands := [][]*models.Card{
		{numCard(models.ColorRed, 3), numCard(models.ColorBlue, 7)},
		{numCard(models.ColorGreen, 2)},
	}
	g, players, _ := craftGame(t, hands, NewDeck()[:10], numCard(models.ColorRed, 5), DefaultHouseRules())

	snap := g.Snapshot()
	require.Len(t, snap.Players[0].Hand, 2)
	require.Len(t, snap.DrawPile, 10)

	_, err := g.DrawCard(players[0].ID)
	require.NoError(t, err)

	assert.Len(t, snap.Players[0].Hand, 2, "snapshot hand unchanged by later draw")
	assert.Len(t, snap.DrawPile, 10, "snapshot pile unchanged by later draw")
}

// TestViewForObfuscation checks that a player sees their own hand, only
// counts for opponents, and pile sizes instead of contents.
func TestViewForObfuscation(t *testing.T) {
	hands := [][]*models.Card{
		{numCard(models.ColorRed, 3), numCard(models.ColorBlue, 7)},
		{numCard(models.ColorGreen, 2)},
	}
	top := numCard(models.ColorRed, 5)
	g, players, _ := craftGame(t, hands, NewDeck()[:10], top, DefaultHouseRules())

	snap := g.Snapshot()
	view := snap.ViewFor(players[0].ID)

	assert.Equal(t, g.ID, view.GameID)
	assert.Equal(t, players[0].ID, view.CurrentPlayerID)
	assert.Equal(t, 10, view.DrawPileSize)
	assert.Equal(t, 1, view.DiscardSize)
	require.NotNil(t, view.DiscardTop)
	assert.Equal(t, top.ID, view.DiscardTop.ID)

	require.Len(t, view.Players, 2)
	assert.Len(t, view.Players[0].Hand, 2, "own hand is visible")
	assert.True(t, view.Players[0].IsCurrentTurn)
	assert.Nil(t, view.Players[1].Hand, "opponent hand is hidden")
	assert.Equal(t, 1, view.Players[1].HandSize)
}

// TestViewForStranger returns a fully obfuscated view for an ID that holds no
// seat.
func TestViewForStranger(t *testing.T) {
	hands := [][]*models.Card{
		{numCard(models.ColorRed, 3)},
		{numCard(models.ColorGreen, 2)},
	}
	g, _, _ := craftGame(t, hands, NewDeck()[:10], numCard(models.ColorRed, 5), DefaultHouseRules())

	snap := g.Snapshot()
	view := snap.ViewFor(uuid.New())
	for _, vp := range view.Players {
		assert.Nil(t, vp.Hand)
	}
}
