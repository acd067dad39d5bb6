// internal/game/engine.go
//
// Rule validation and application. Every *Locked method assumes the session
// lock is held; validation never mutates and runs to completion before any
// mutation starts, so a rejected action leaves the state untouched.
package game

import (
	"github.com/google/uuid"
	"github.com/playdeck/uno/internal/models"
)

// topEntry returns the top of the discard pile. The pile is never empty once
// play has started. Assumes lock held.
func (g *UnoGame) topEntry() *DiscardEntry {
	return &g.DiscardPile[len(g.DiscardPile)-1]
}

// effectiveColor is the color a play must match: the wild override when one
// is bound, otherwise the printed color of the top discard. Assumes lock held.
func (g *UnoGame) effectiveColor() models.CardColor {
	if g.CurrentWildColor != "" {
		return g.CurrentWildColor
	}
	return g.topEntry().Card.Color
}

// playCardLocked runs the ordered validation for a card play and, on success,
// applies it. First failure wins.
func (g *UnoGame) playCardLocked(playerID, cardID uuid.UUID, selectedColor models.CardColor) error {
	if g.Status == StatusFinished {
		return ErrGameFinished
	}
	seat := g.seatOf(playerID)
	if seat < 0 {
		return ErrPlayerNotFound
	}
	if seat != g.CurrentPlayerIndex {
		return ErrNotYourTurn
	}
	player := g.Players[seat]
	card := player.HoldsCard(cardID)
	if card == nil {
		return ErrCardNotOwned
	}
	if err := g.validatePlay(player, card, selectedColor); err != nil {
		return err
	}
	g.applyPlay(seat, player, card, selectedColor)
	return nil
}

// validatePlay checks legality of playing card against the current discard.
// Pure: no mutation on any path.
func (g *UnoGame) validatePlay(player *models.Player, card *models.Card, selectedColor models.CardColor) error {
	top := g.topEntry().Card

	// Wild draw four is only legal with no card of the matching color in
	// hand. This checks color-match only, not "no legal alternative"; the
	// stricter test is left to the challenge flow.
	if card.Type == models.TypeWildDrawFour {
		target := g.effectiveColor()
		for _, c := range player.Hand {
			if c.Color != models.ColorWild && c.Color == target {
				return ErrIllegalWildDrawFour
			}
		}
	}

	if g.IsStackingActive && g.CardsToDraw > 0 {
		if !g.HouseRules.StackingEnabled {
			return ErrMustDrawFirst
		}
		validStack := (card.Type == models.TypeDrawTwo && top.Type == models.TypeDrawTwo) ||
			(card.Type == models.TypeWildDrawFour && top.Type == models.TypeWildDrawFour)
		if !validStack {
			return ErrMustDrawFirst
		}
	}

	if card.Color != models.ColorWild {
		target := g.effectiveColor()
		numberMatch := card.Type == models.TypeNumber && top.Type == models.TypeNumber &&
			card.Number == top.Number
		if card.Color != target && card.Type != top.Type && !numberMatch {
			return ErrCardNotPlayable
		}
	}

	if card.Color == models.ColorWild && selectedColor == "" && card.Type != models.TypeBlankWild {
		return ErrColorSelectionRequired
	}
	return nil
}

// applyPlay mutates the state for a validated play: hand removal, discard
// push with attribution, wild color binding, effect resolution, turn advance,
// and end-of-round detection.
func (g *UnoGame) applyPlay(seat int, player *models.Player, card *models.Card, selectedColor models.CardColor) {
	priorColor := g.effectiveColor()

	hand := make([]*models.Card, 0, len(player.Hand)-1)
	for _, c := range player.Hand {
		if c.ID != card.ID {
			hand = append(hand, c)
		}
	}
	player.Hand = hand
	player.HasCalledUno = len(hand) == 1

	g.DiscardPile = append(g.DiscardPile, DiscardEntry{
		Card:       card,
		PlayedBy:   seat,
		PriorColor: priorColor,
	})

	if card.Color == models.ColorWild {
		if selectedColor != "" {
			g.CurrentWildColor = selectedColor
		}
	} else {
		// A colored play re-targets matching to its own printed color, so
		// any earlier wild binding is spent.
		g.CurrentWildColor = ""
	}

	skipCount := 0
	switch card.Type {
	case models.TypeSkip:
		skipCount = 1
	case models.TypeReverse:
		if len(g.Players) == 2 {
			// Reverse-as-skip: with no third player to redirect toward, the
			// turn stays with the actor.
			skipCount = 1
		} else {
			g.Direction = g.Direction.Flip()
		}
	case models.TypeDrawTwo:
		if g.CardsToDraw > 0 && g.HouseRules.StackingEnabled {
			g.CardsToDraw += 2
		} else {
			g.CardsToDraw = 2
		}
		g.IsStackingActive = true
		skipCount = 1
	case models.TypeWildDrawFour:
		if g.CardsToDraw > 0 && g.HouseRules.StackingEnabled {
			g.CardsToDraw += 4
		} else {
			g.CardsToDraw = 4
		}
		g.IsStackingActive = true
		skipCount = 1
	default:
		g.CardsToDraw = 0
		g.IsStackingActive = false
	}

	g.CurrentPlayerIndex = nextSeat(seat, len(g.Players), skipCount, g.Direction)

	if len(player.Hand) == 0 {
		g.finishRound(player.ID)
	}
}

// drawCardLocked resolves a draw action: the full pending penalty or a single
// card, drawn one at a time with reshuffle-on-empty, then a plain one-seat
// advance regardless of any pending skip.
func (g *UnoGame) drawCardLocked(playerID uuid.UUID) error {
	if g.Status == StatusFinished {
		return ErrGameFinished
	}
	seat := g.seatOf(playerID)
	if seat < 0 {
		return ErrPlayerNotFound
	}
	if seat != g.CurrentPlayerIndex {
		return ErrNotYourTurn
	}

	count := 1
	if g.CardsToDraw > 0 {
		count = g.CardsToDraw
	}

	player := g.Players[seat]
	player.Hand = append(player.Hand, g.drawFromPile(count)...)
	player.HasCalledUno = false

	g.CurrentPlayerIndex = nextSeat(seat, len(g.Players), 0, g.Direction)
	g.CardsToDraw = 0
	g.IsStackingActive = false
	return nil
}

// drawFromPile removes up to count cards from the draw pile. Whenever the
// pile runs dry mid-draw, the discard pile minus its top entry is reshuffled
// into a fresh draw pile and drawing continues. With one or zero discards
// left there is nothing to reshuffle from and the draw stops early; the
// caller receives fewer cards, never an error. Assumes lock held.
func (g *UnoGame) drawFromPile(count int) []*models.Card {
	drawn := make([]*models.Card, 0, count)
	for i := 0; i < count; i++ {
		if len(g.DrawPile) == 0 {
			if len(g.DiscardPile) <= 1 {
				break
			}
			g.reshuffleDiscard()
		}
		if len(g.DrawPile) == 0 {
			break
		}
		drawn = append(drawn, g.DrawPile[0])
		g.DrawPile = g.DrawPile[1:]
	}
	return drawn
}

// reshuffleDiscard rebuilds the draw pile from everything under the top
// discard entry. Attribution of reshuffled cards is gone by definition; the
// surviving top keeps its own. Assumes lock held and len(DiscardPile) >= 2.
func (g *UnoGame) reshuffleDiscard() {
	topIdx := len(g.DiscardPile) - 1
	top := g.DiscardPile[topIdx]

	pile := make([]*models.Card, topIdx)
	for i, e := range g.DiscardPile[:topIdx] {
		pile[i] = e.Card
	}
	ShuffleDeck(pile, g.rand)

	g.DrawPile = pile
	g.DiscardPile = []DiscardEntry{top}
}

// callUnoLocked validates and applies a player's UNO call.
func (g *UnoGame) callUnoLocked(playerID uuid.UUID) error {
	if g.Status == StatusFinished {
		return ErrGameFinished
	}
	seat := g.seatOf(playerID)
	if seat < 0 {
		return ErrPlayerNotFound
	}
	player := g.Players[seat]
	if len(player.Hand) != 1 {
		return ErrCannotCallUno
	}
	player.HasCalledUno = true
	return nil
}

// catchUnoFailureLocked validates and applies catching a missed UNO call.
// The penalty comes straight off the draw pile, up to two cards, fewer if it
// is exhausted; this path does not reshuffle.
func (g *UnoGame) catchUnoFailureLocked(catcherID, targetID uuid.UUID) error {
	if g.Status == StatusFinished {
		return ErrGameFinished
	}
	if g.seatOf(catcherID) < 0 {
		return ErrPlayerNotFound
	}
	seat := g.seatOf(targetID)
	if seat < 0 {
		return ErrPlayerNotFound
	}
	target := g.Players[seat]
	if len(target.Hand) != 1 || target.HasCalledUno {
		return ErrNoUnoFailure
	}
	g.applyDrawPenalty(seat, 2)
	return nil
}

// challengeLocked resolves a wild-draw-four challenge. Scans the discard pile
// top-down for the most recent wild draw four; its recorded PlayedBy seat and
// PriorColor decide who the four-card penalty lands on.
func (g *UnoGame) challengeLocked(challengerID uuid.UUID, isChallenging bool) error {
	if g.Status == StatusFinished {
		return ErrGameFinished
	}
	challengerSeat := g.seatOf(challengerID)
	if challengerSeat < 0 {
		return ErrPlayerNotFound
	}
	if !g.HouseRules.ChallengeEnabled {
		return ErrChallengeDisabled
	}

	var entry *DiscardEntry
	for i := len(g.DiscardPile) - 1; i >= 0; i-- {
		if g.DiscardPile[i].Card.Type == models.TypeWildDrawFour {
			entry = &g.DiscardPile[i]
			break
		}
	}
	if entry == nil {
		return ErrNoChallengeable
	}

	if !isChallenging {
		// Accepted: the challenger takes the four cards.
		g.applyDrawPenalty(challengerSeat, 4)
		return nil
	}

	if entry.PlayedBy >= 0 && g.wildDrawFourWasIllegal(entry.PlayedBy, entry.PriorColor) {
		g.applyDrawPenalty(entry.PlayedBy, 4)
	} else {
		g.applyDrawPenalty(challengerSeat, 4)
	}
	return nil
}

// wildDrawFourWasIllegal re-runs the color-match heuristic against the
// offender's current hand and the color that was in effect before the play.
// The hand may have changed since, so this is the best check the recorded
// state supports. Assumes lock held.
func (g *UnoGame) wildDrawFourWasIllegal(seat int, priorColor models.CardColor) bool {
	if priorColor == "" || priorColor == models.ColorWild {
		return false
	}
	for _, c := range g.Players[seat].Hand {
		if c.Color != models.ColorWild && c.Color == priorColor {
			return true
		}
	}
	return false
}

// applyDrawPenalty moves up to count cards from the draw pile into the seat's
// hand, fewer if the pile is exhausted. Penalty draws never reshuffle.
// Assumes lock held.
func (g *UnoGame) applyDrawPenalty(seat, count int) {
	player := g.Players[seat]
	for i := 0; i < count && len(g.DrawPile) > 0; i++ {
		player.Hand = append(player.Hand, g.DrawPile[0])
		g.DrawPile = g.DrawPile[1:]
	}
}
