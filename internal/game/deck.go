// internal/game/deck.go
package game

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/playdeck/uno/internal/models"
)

// DeckSize is the fixed card count of a full deck. The composition is a
// conservation invariant: it must hold across piles and hands at all times.
const DeckSize = 112

// CardsPerHand is the standard opening deal.
const CardsPerHand = 7

// NewDeck builds the canonical 112-card deck with fresh card IDs: per color
// one 0, two each of 1-9, two each of skip/reverse/drawTwo, plus four each of
// wild, wild draw four, and blank wild.
func NewDeck() []*models.Card {
	deck := make([]*models.Card, 0, DeckSize)
	colors := []models.CardColor{models.ColorRed, models.ColorBlue, models.ColorGreen, models.ColorYellow}

	for _, color := range colors {
		deck = append(deck, newNumberCard(color, 0))
		for n := 1; n <= 9; n++ {
			deck = append(deck, newNumberCard(color, n), newNumberCard(color, n))
		}
		for _, t := range []models.CardType{models.TypeSkip, models.TypeReverse, models.TypeDrawTwo} {
			deck = append(deck, newActionCard(color, t), newActionCard(color, t))
		}
	}

	for _, t := range []models.CardType{models.TypeWild, models.TypeWildDrawFour, models.TypeBlankWild} {
		for i := 0; i < 4; i++ {
			deck = append(deck, &models.Card{
				ID:         uuid.New(),
				Color:      models.ColorWild,
				Type:       t,
				PointValue: 50,
			})
		}
	}
	return deck
}

func newNumberCard(color models.CardColor, n int) *models.Card {
	return &models.Card{
		ID:         uuid.New(),
		Color:      color,
		Type:       models.TypeNumber,
		Number:     n,
		PointValue: n,
	}
}

func newActionCard(color models.CardColor, t models.CardType) *models.Card {
	return &models.Card{
		ID:         uuid.New(),
		Color:      color,
		Type:       t,
		PointValue: 20,
	}
}

// ShuffleDeck permutes the deck in place with a Fisher-Yates shuffle driven by
// the provided source, so shuffles are reproducible under a fixed seed.
func ShuffleDeck(deck []*models.Card, r *rand.Rand) {
	r.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}

// Deal distributes perPlayer cards round-robin, one card per player per pass,
// and returns the hands plus the remaining deck. The pass order matters for
// deterministic replays.
func Deal(deck []*models.Card, numPlayers, perPlayer int) ([][]*models.Card, []*models.Card) {
	hands := make([][]*models.Card, numPlayers)
	for i := 0; i < perPlayer; i++ {
		for j := 0; j < numPlayers; j++ {
			if len(deck) == 0 {
				return hands, deck
			}
			hands[j] = append(hands[j], deck[0])
			deck = deck[1:]
		}
	}
	return hands, deck
}

// PopInitialDiscard removes and returns the first non-wild card from the
// front of the deck. If only wild cards remain it takes the first card
// unconditionally so the discard pile is never left empty while cards exist.
func PopInitialDiscard(deck []*models.Card) (*models.Card, []*models.Card) {
	for i, c := range deck {
		if c.Color != models.ColorWild {
			return c, append(deck[:i], deck[i+1:]...)
		}
	}
	if len(deck) == 0 {
		return nil, deck
	}
	return deck[0], deck[1:]
}
