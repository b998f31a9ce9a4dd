package sim

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cbuckley/courtcast/internal/season"
	"github.com/cbuckley/courtcast/internal/team"
)

const (
	// Fixed point is converged when no gradient component exceeds this.
	ratingsEpsilon = 1e-6
	maxFitIters    = 10_000

	// Synthetic win mass for teams that have played but never won,
	// keeping their strength update positive.
	winlessFloor = 1e-3
)

// Ratings holds fitted Bradley-Terry strengths. The weakest team's
// strength is normalized to 1; a team twice as strong wins the
// matchup two times in three.
type Ratings struct {
	strength map[string]float64
	iters    int
}

// Strength returns t's fitted strength.
func (r *Ratings) Strength(t team.Team) float64 {
	s, ok := r.strength[t.Abbrev]
	if !ok {
		panic(fmt.Sprintf("no rating fitted for %s", t.Abbrev))
	}
	return s
}

// Iterations returns how many fixed-point steps the fit took.
func (r *Ratings) Iterations() int { return r.iters }

// WinMatrix builds the pairwise weighted win counts over completed
// games: entry (i, j) is the weight of teams[i]'s wins against
// teams[j]. With halfLife > 0 each win is discounted by
// 2^(-daysAgo/halfLife) relative to asOf; otherwise wins count evenly.
func WinMatrix(teams []team.Team, games []*season.Game, asOf time.Time, halfLife float64) *mat.Dense {
	idx := make(map[string]int, len(teams))
	for i, t := range teams {
		idx[t.Abbrev] = i
	}
	w := mat.NewDense(len(teams), len(teams), nil)
	for _, g := range games {
		if !g.Completed() {
			continue
		}
		wi, ok := idx[g.Winner().Abbrev]
		if !ok {
			continue
		}
		li, ok := idx[g.Loser().Abbrev]
		if !ok {
			continue
		}
		x := 1.0
		if halfLife > 0 {
			daysAgo := asOf.Truncate(24*time.Hour).Sub(g.Date.Truncate(24*time.Hour)).Hours() / 24
			x = math.Exp2(-daysAgo / halfLife)
		}
		w.Set(wi, li, w.At(wi, li)+x)
	}
	return w
}

// FitRatings fits Bradley-Terry strengths to the completed games by
// minorization-maximization. Teams with no completed games yet keep
// strength 1 and take no part in the fit. Returns an error if nothing
// has been played, or if the fixed point does not converge within the
// iteration cap.
func FitRatings(teams []team.Team, games []*season.Game, asOf time.Time, halfLife float64) (*Ratings, error) {
	n := len(teams)
	if n < 2 {
		return nil, fmt.Errorf("need at least two teams to fit ratings, got %d", n)
	}
	w := WinMatrix(teams, games, asOf, halfLife)

	var ww mat.Dense
	ww.Add(w, w.T())

	played := make([]bool, n)
	anyPlayed := false
	for i := 0; i < n; i++ {
		if floats.Sum(ww.RawRowView(i)) > 0 {
			played[i] = true
			anyPlayed = true
		}
	}
	if !anyPlayed {
		return nil, fmt.Errorf("no completed games to fit ratings")
	}

	totals := make([]float64, n)
	for i := 0; i < n; i++ {
		totals[i] = floats.Sum(w.RawRowView(i))
		if totals[i] == 0 {
			totals[i] = winlessFloor
		}
	}

	p := make([]float64, n)
	for i := range p {
		p[i] = 1
	}
	q := make([]float64, n)

	for iter := 1; iter <= maxFitIters; iter++ {
		maxGradient := 0.0
		for i := 0; i < n; i++ {
			if !played[i] {
				q[i] = 1
				continue
			}
			denom := 0.0
			for j := 0; j < n; j++ {
				denom += ww.At(i, j) / (p[i] + p[j])
			}
			gradient := totals[i]/p[i] - denom
			if math.Abs(gradient) > maxGradient {
				maxGradient = math.Abs(gradient)
			}
			q[i] = totals[i] / denom
		}
		if maxGradient < ratingsEpsilon {
			return &Ratings{strength: toStrengths(teams, p), iters: iter}, nil
		}
		// Normalize over the teams actually in the fit, then re-pin
		// the idle teams at 1.
		lowest := math.Inf(1)
		for i := range q {
			if played[i] && q[i] < lowest {
				lowest = q[i]
			}
		}
		floats.Scale(1/lowest, q)
		for i := range q {
			if !played[i] {
				q[i] = 1
			}
		}
		copy(p, q)
	}
	return nil, fmt.Errorf("ratings did not converge after %d iterations", maxFitIters)
}

func toStrengths(teams []team.Team, p []float64) map[string]float64 {
	out := make(map[string]float64, len(teams))
	for i, t := range teams {
		out[t.Abbrev] = p[i]
	}
	return out
}

// RatingsOracle scores games from fitted strengths, blended with the
// home-court and rest adjustments.
type RatingsOracle struct {
	ratings *Ratings
}

func NewRatingsOracle(r *Ratings) *RatingsOracle {
	return &RatingsOracle{ratings: r}
}

func (o *RatingsOracle) HomeWinProbability(g *season.Game) float64 {
	home := o.ratings.Strength(g.Home)
	away := o.ratings.Strength(g.Away)
	return blendSchedule(home/(home+away), g)
}
