// internal/game/deck_test.go
package game

import (
	"math/rand"
	"testing"

	"github.com/playdeck/uno/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewDeckComposition verifies the canonical 112-card composition.
func TestNewDeckComposition(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, DeckSize)

	type key struct {
		color  models.CardColor
		typ    models.CardType
		number int
	}
	counts := map[key]int{}
	ids := map[string]bool{}
	for _, c := range deck {
		counts[key{c.Color, c.Type, c.Number}]++
		ids[c.ID.String()] = true
	}
	assert.Len(t, ids, DeckSize, "every card should have a unique ID")

	for _, color := range models.PlayableColors {
		assert.Equal(t, 1, counts[key{color, models.TypeNumber, 0}], "%s 0", color)
		for n := 1; n <= 9; n++ {
			assert.Equal(t, 2, counts[key{color, models.TypeNumber, n}], "%s %d", color, n)
		}
		for _, typ := range []models.CardType{models.TypeSkip, models.TypeReverse, models.TypeDrawTwo} {
			assert.Equal(t, 2, counts[key{color, typ, 0}], "%s %s", color, typ)
		}
	}
	for _, typ := range []models.CardType{models.TypeWild, models.TypeWildDrawFour, models.TypeBlankWild} {
		assert.Equal(t, 4, counts[key{models.ColorWild, typ, 0}], "%s", typ)
	}
}

// TestNewDeckPointValues checks the scoring value assigned to each card class.
func TestNewDeckPointValues(t *testing.T) {
	for _, c := range NewDeck() {
		switch {
		case c.Type == models.TypeNumber:
			assert.Equal(t, c.Number, c.PointValue)
		case c.Color == models.ColorWild:
			assert.Equal(t, 50, c.PointValue)
		default:
			assert.Equal(t, 20, c.PointValue)
		}
	}
}

// TestShuffleDeterministic verifies that shuffling is a permutation and that
// a fixed seed reproduces the same order.
func TestShuffleDeterministic(t *testing.T) {
	deck := NewDeck()
	before := make([]*models.Card, len(deck))
	copy(before, deck)

	ShuffleDeck(deck, rand.New(rand.NewSource(7)))

	seen := map[string]bool{}
	for _, c := range deck {
		seen[c.ID.String()] = true
	}
	for _, c := range before {
		assert.True(t, seen[c.ID.String()], "shuffle must not lose card %s", c.ID)
	}

	again := make([]*models.Card, len(before))
	copy(again, before)
	ShuffleDeck(again, rand.New(rand.NewSource(7)))
	for i := range deck {
		assert.Equal(t, deck[i].ID, again[i].ID, "same seed should reproduce order at %d", i)
	}
}

// TestDealRoundRobin checks one-card-per-player-per-pass order.
func TestDealRoundRobin(t *testing.T) {
	deck := NewDeck()
	hands, rest := Deal(deck, 3, 7)

	require.Len(t, hands, 3)
	for i := range hands {
		require.Len(t, hands[i], 7)
	}
	assert.Len(t, rest, DeckSize-21)

	// Pass i hands deck[i*3+j] to player j.
	for pass := 0; pass < 7; pass++ {
		for seat := 0; seat < 3; seat++ {
			assert.Equal(t, deck[pass*3+seat].ID, hands[seat][pass].ID)
		}
	}
}

// TestPopInitialDiscardSkipsWilds verifies the first non-wild card is chosen.
func TestPopInitialDiscardSkipsWilds(t *testing.T) {
	five := numCard(models.ColorRed, 5)
	deck := []*models.Card{
		wildCard(models.TypeWild),
		wildCard(models.TypeWildDrawFour),
		five,
		numCard(models.ColorBlue, 1),
	}
	first, rest := PopInitialDiscard(deck)
	require.NotNil(t, first)
	assert.Equal(t, five.ID, first.ID)
	assert.Len(t, rest, 3)
	for _, c := range rest {
		assert.NotEqual(t, five.ID, c.ID)
	}
}

// TestPopInitialDiscardAllWilds falls back to the first card so the discard
// pile is never empty.
func TestPopInitialDiscardAllWilds(t *testing.T) {
	w := wildCard(models.TypeWild)
	deck := []*models.Card{w, wildCard(models.TypeBlankWild)}
	first, rest := PopInitialDiscard(deck)
	require.NotNil(t, first)
	assert.Equal(t, w.ID, first.ID)
	assert.Len(t, rest, 1)
}
