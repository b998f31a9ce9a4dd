// Package sim predicts the remainder of a season. Two oracles score
// individual games (a Bradley-Terry fit over results so far, and an
// efficiency model built from rosters and player impact ratings), and
// a Monte Carlo driver runs the remaining schedule, the play-in, and
// the playoff bracket many times to estimate outcome distributions.
package sim

import (
	"github.com/cbuckley/courtcast/internal/season"
)

// Oracle estimates the home side's win probability for one game.
// Implementations must be safe for concurrent use; trials run in
// parallel against a shared oracle.
type Oracle interface {
	HomeWinProbability(g *season.Game) float64
}

// ConstantOracle returns the same probability for every game. Useful
// for calibration runs and tests.
type ConstantOracle float64

func (c ConstantOracle) HomeWinProbability(*season.Game) float64 { return float64(c) }
