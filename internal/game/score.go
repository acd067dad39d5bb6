// internal/game/score.go
package game

import (
	"log"

	"github.com/google/uuid"
)

// finishRound handles a hand reaching zero cards. Single-round mode ends the
// game immediately. Cumulative mode banks the point values left in every
// other hand to the winner's running total and ends the game only once that
// total meets the winning score; starting the next round is the caller's
// concern, not the engine's. Assumes lock held.
func (g *UnoGame) finishRound(roundWinnerID uuid.UUID) {
	if g.ScoreMode == ScoreSingleRound {
		g.endGame(roundWinnerID)
		return
	}

	round := g.roundScore()
	g.PlayerScores[roundWinnerID] += round
	log.Printf("Game %s: round won by %s for %d points (total %d)",
		g.ID, roundWinnerID, round, g.PlayerScores[roundWinnerID])

	if g.PlayerScores[roundWinnerID] >= g.HouseRules.WinningScore {
		g.endGame(roundWinnerID)
	}
}

// roundScore sums the point value of every card still held in every hand.
// The round winner's hand is empty, so the sum is what the opponents hold.
// Assumes lock held.
func (g *UnoGame) roundScore() int {
	total := 0
	for _, p := range g.Players {
		for _, c := range p.Hand {
			total += c.PointValue
		}
	}
	return total
}

// endGame transitions the session to its terminal state. Once finished, every
// mutating operation is rejected; the snapshot stays queryable until the
// registry evicts the session. Assumes lock held.
func (g *UnoGame) endGame(winnerID uuid.UUID) {
	g.Status = StatusFinished
	g.WinnerID = winnerID
	g.EndedAt = g.now()
	log.Printf("Game %s: finished, winner %s", g.ID, winnerID)
}
