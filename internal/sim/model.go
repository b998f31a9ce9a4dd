package sim

import (
	"fmt"
	"math"
	"sort"

	"github.com/cbuckley/courtcast/internal/player"
	"github.com/cbuckley/courtcast/internal/provider"
	"github.com/cbuckley/courtcast/internal/provider/raptor"
	"github.com/cbuckley/courtcast/internal/provider/stuffer"
	"github.com/cbuckley/courtcast/internal/season"
	"github.com/cbuckley/courtcast/internal/team"
)

// League tuning constants. Taken as given, not fitted here.
const (
	avgPointsPer100   = 114.3
	avgPossessions    = 100.0
	avgMinutesPerGame = 48.3 // 0.3 over regulation to absorb overtime
	playersOnCourt    = 5

	homeCourtWinPct  = 0.606
	restedWinPct     = 0.518
	backToBackWinPct = 0.436

	pythExponentRegular  = 14.3
	pythExponentPlayoffs = 13.2

	// Games of imaginary scoreless play mixed into a player's minutes
	// per game, muting small samples.
	minutesAlpha = 2.0
)

func logOdds(p float64) float64 {
	return math.Log(p / (1 - p))
}

func fromLogOdds(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// blendSchedule folds home court and both sides' rest into a raw win
// probability. Adjustments add in log-odds space.
func blendSchedule(raw float64, g *season.Game) float64 {
	x := logOdds(raw) + logOdds(homeCourtWinPct)
	x += restLogOdds(g.RestDays(g.Home))
	x -= restLogOdds(g.RestDays(g.Away))
	return fromLogOdds(x)
}

func restLogOdds(days int) float64 {
	if days > 1 {
		return logOdds(restedWinPct)
	}
	return logOdds(backToBackWinPct)
}

// MinutesMethod selects how a team's 240 game minutes are split
// across its roster.
type MinutesMethod int

const (
	// SeasonMinutes allocates proportionally to each player's season
	// minutes.
	SeasonMinutes MinutesMethod = iota
	// ImpactRank allocates greedily from the highest-rated player
	// down, capping each at their smoothed minutes per game.
	ImpactRank
)

// PlayerLine joins one roster entry with its impact rating.
type PlayerLine struct {
	Player         player.Player
	GamesPlayed    float64
	MinutesPerGame float64
	Rating         raptor.Rating
}

// adjustedMPG is what the player's minutes per game become after
// minutesAlpha extra scoreless games.
func (l PlayerLine) adjustedMPG() float64 {
	return l.GamesPlayed * l.MinutesPerGame / (l.GamesPlayed + minutesAlpha)
}

// TeamModel turns a roster into per-game efficiency adjustments
// relative to league average, weighted by projected minutes.
type TeamModel struct {
	Team       team.Team
	Minutes    map[string]float64 // projected minutes per game by player name
	OffenseAdj float64            // points per 100 possessions vs average
	DefenseAdj float64            // points per 100 possessions denied vs average
	PaceAdj    float64            // possessions per game vs average
}

// NewTeamModel builds the model for one team.
func NewTeamModel(t team.Team, lines []PlayerLine, method MinutesMethod) (*TeamModel, error) {
	minutes, err := projectMinutes(lines, method)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.Abbrev, err)
	}
	m := &TeamModel{Team: t, Minutes: minutes}
	for _, l := range lines {
		share := minutes[l.Player.Name] / avgMinutesPerGame
		m.OffenseAdj += l.Rating.Offense * share
		m.DefenseAdj += l.Rating.Defense * share
		m.PaceAdj += l.Rating.PaceImpact * share
	}
	return m, nil
}

// Offense returns the modeled points scored per 100 possessions.
func (m *TeamModel) Offense() float64 { return avgPointsPer100 + m.OffenseAdj }

// Defense returns the modeled points allowed per 100 possessions.
func (m *TeamModel) Defense() float64 { return avgPointsPer100 - m.DefenseAdj }

// Pace returns the modeled possessions per game.
func (m *TeamModel) Pace() float64 { return avgPossessions + m.PaceAdj }

func projectMinutes(lines []PlayerLine, method MinutesMethod) (map[string]float64, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("empty roster")
	}
	total := avgMinutesPerGame * playersOnCourt
	minutes := make(map[string]float64, len(lines))

	switch method {
	case SeasonMinutes:
		sum := 0.0
		for _, l := range lines {
			sum += l.Rating.Minutes
		}
		if sum == 0 {
			return nil, fmt.Errorf("no season minutes to scale")
		}
		for _, l := range lines {
			minutes[l.Player.Name] = l.Rating.Minutes * total / sum
		}
		return minutes, nil

	case ImpactRank:
		ordered := append([]PlayerLine(nil), lines...)
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].Rating.Total > ordered[j].Rating.Total
		})
		remaining := total
		for _, l := range ordered {
			mpg := math.Min(l.adjustedMPG(), remaining)
			remaining -= mpg
			minutes[l.Player.Name] = mpg
		}
		if remaining > 0 {
			return nil, fmt.Errorf("roster too thin: %.1f minutes unfilled", remaining)
		}
		return minutes, nil
	}
	return nil, fmt.Errorf("unknown minutes method %d", method)
}

// BuildTeamModels resolves every roster entry through the player
// directory, joins it with its impact rating, and builds one model
// per current franchise. Players without a rating are reported and
// left out; a team that cannot be modeled at all is fatal.
func BuildTeamModels(
	reg *team.Registry,
	rosters map[string][]stuffer.Entry,
	ratings map[string]raptor.Rating,
	dir *player.Directory,
	method MinutesMethod,
) (map[string]*TeamModel, *provider.Result, error) {
	res := &provider.Result{}
	models := make(map[string]*TeamModel)

	for _, t := range reg.Current() {
		var lines []PlayerLine
		for _, e := range rosters[t.Abbrev] {
			p, ok := resolveRosterName(dir, e.Name)
			if !ok {
				res.AddErrorf("%s: roster player %q not in directory", t.Abbrev, e.Name)
				res.Skipped++
				continue
			}
			rating, ok := ratings[p.Name]
			if !ok {
				res.AddErrorf("%s: no impact rating for %q", t.Abbrev, p.Name)
				res.Skipped++
				continue
			}
			lines = append(lines, PlayerLine{
				Player:         p,
				GamesPlayed:    e.GamesPlayed,
				MinutesPerGame: e.MinutesPerGame,
				Rating:         rating,
			})
			res.Rows++
		}
		m, err := NewTeamModel(t, lines, method)
		if err != nil {
			return nil, res, fmt.Errorf("build team models: %w", err)
		}
		models[t.Abbrev] = m
	}
	return models, res, nil
}

func resolveRosterName(dir *player.Directory, name string) (player.Player, bool) {
	if p, err := dir.Lookup(name); err == nil {
		return p, true
	}
	if matches := dir.CandidateMatches(name); len(matches) == 1 {
		return matches[0], true
	}
	return player.Player{}, false
}

// GameType selects the pythagorean exponent; playoff basketball is
// slightly less predictable from scoring margins.
type GameType int

const (
	RegularSeason GameType = iota
	Playoffs
)

func (gt GameType) pythExponent() float64 {
	if gt == Playoffs {
		return pythExponentPlayoffs
	}
	return pythExponentRegular
}

// EfficiencyOracle scores games from the team models: expected
// scores from pace and efficiency, pythagorean win expectation, then
// the schedule blend.
type EfficiencyOracle struct {
	models   map[string]*TeamModel
	gameType GameType
}

func NewEfficiencyOracle(models map[string]*TeamModel) *EfficiencyOracle {
	return &EfficiencyOracle{models: models, gameType: RegularSeason}
}

// Playoffs returns a view of the oracle using the playoff exponent.
func (o *EfficiencyOracle) Playoffs() *EfficiencyOracle {
	return &EfficiencyOracle{models: o.models, gameType: Playoffs}
}

// ExpectedScore returns the modeled final score of a matchup before
// any home-court or rest adjustment.
func (o *EfficiencyOracle) ExpectedScore(home, away team.Team) (float64, float64) {
	h := o.model(home)
	a := o.model(away)
	possessions := avgPossessions + h.PaceAdj + a.PaceAdj
	homeEff := avgPointsPer100 + h.OffenseAdj - a.DefenseAdj
	awayEff := avgPointsPer100 + a.OffenseAdj - h.DefenseAdj
	return possessions * homeEff / 100, possessions * awayEff / 100
}

func (o *EfficiencyOracle) HomeWinProbability(g *season.Game) float64 {
	homePoints, awayPoints := o.ExpectedScore(g.Home, g.Away)
	exp := o.gameType.pythExponent()
	home := math.Pow(homePoints, exp)
	away := math.Pow(awayPoints, exp)
	return blendSchedule(home/(home+away), g)
}

func (o *EfficiencyOracle) model(t team.Team) *TeamModel {
	m, ok := o.models[t.Abbrev]
	if !ok {
		panic(fmt.Sprintf("no team model for %s", t.Abbrev))
	}
	return m
}
