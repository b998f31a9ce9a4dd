package sim

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/stat"
	yaml "gopkg.in/yaml.v2"

	"github.com/cbuckley/courtcast/internal/season"
	"github.com/cbuckley/courtcast/internal/team"
)

// Wager is the season bet: every franchise claimed by exactly one of
// two sides, a side scoring one point per playoff game its teams win.
// Play-in games do not count.
type Wager struct {
	Season string      `yaml:"season"`
	Sides  []WagerSide `yaml:"sides"`
}

// WagerSide is one bettor and their claimed teams.
type WagerSide struct {
	Name  string   `yaml:"name"`
	Teams []string `yaml:"teams"`
}

// LoadWager reads and validates a wager config.
func LoadWager(path string, reg *team.Registry) (*Wager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load wager: %w", err)
	}
	var w Wager
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parse wager %s: %w", path, err)
	}
	if err := w.Validate(reg); err != nil {
		return nil, fmt.Errorf("wager %s: %w", path, err)
	}
	return &w, nil
}

// Validate checks the wager covers the league: two named sides, every
// reference resolvable, every current franchise claimed exactly once.
func (w *Wager) Validate(reg *team.Registry) error {
	if len(w.Sides) != 2 {
		return fmt.Errorf("need exactly two sides, got %d", len(w.Sides))
	}
	claimed := make(map[string]string)
	for i := range w.Sides {
		side := &w.Sides[i]
		if side.Name == "" {
			return fmt.Errorf("side %d has no name", i)
		}
		for j, ref := range side.Teams {
			t, err := reg.Parse(ref)
			if err != nil {
				return fmt.Errorf("side %q: %w", side.Name, err)
			}
			if t.Defunct() {
				return fmt.Errorf("side %q claims defunct team %s", side.Name, t.Abbrev)
			}
			if prev, dup := claimed[t.Abbrev]; dup {
				return fmt.Errorf("%s claimed by both %q and %q", t.Abbrev, prev, side.Name)
			}
			claimed[t.Abbrev] = side.Name
			side.Teams[j] = t.Abbrev
		}
	}
	var unclaimed []string
	for _, t := range reg.Current() {
		if _, ok := claimed[t.Abbrev]; !ok {
			unclaimed = append(unclaimed, t.Abbrev)
		}
	}
	if len(unclaimed) > 0 {
		return fmt.Errorf("unclaimed teams: %s", strings.Join(unclaimed, ", "))
	}
	return nil
}

// sideOf returns the claiming side's index, or -1.
func (w *Wager) sideOf(t team.Team) int {
	for i, side := range w.Sides {
		for _, ab := range side.Teams {
			if ab == t.Abbrev {
				return i
			}
		}
	}
	return -1
}

// TeamResults accumulates one franchise's outcomes across trials.
type TeamResults struct {
	Team              team.Team
	PlayoffCount      int
	RegularSeasonWins map[int]int // wins -> trials
	SeedCounts        map[int]int // conference seed -> trials
	PlayoffWins       map[int]int // playoff games won -> trials
}

func newTeamResults(t team.Team) *TeamResults {
	return &TeamResults{
		Team:              t,
		RegularSeasonWins: make(map[int]int),
		SeedCounts:        make(map[int]int),
		PlayoffWins:       make(map[int]int),
	}
}

// Score is the total playoff games won across all trials.
func (r *TeamResults) Score() int {
	total := 0
	for wins, count := range r.PlayoffWins {
		total += wins * count
	}
	return total
}

// TitleCount is how many trials ended with this team winning it all.
func (r *TeamResults) TitleCount() int { return r.PlayoffWins[16] }

// Aggregate folds trial records into outcome distributions.
type Aggregate struct {
	Trials    int
	Completed int
	Wager     *Wager

	SideGameWins  [2]int // playoff games won by each side, all trials
	SideTrialWins [2]int
	Pushes        int

	Teams map[string]*TeamResults

	registry *team.Registry
	margins  []float64 // side 0 minus side 1, indexed by trial
}

func newAggregate(reg *team.Registry, trials int, wager *Wager) *Aggregate {
	a := &Aggregate{
		Trials:   trials,
		Wager:    wager,
		Teams:    make(map[string]*TeamResults),
		registry: reg,
	}
	for _, t := range reg.Current() {
		a.Teams[t.Abbrev] = newTeamResults(t)
	}
	if wager != nil {
		a.margins = make([]float64, trials)
	}
	return a
}

// update folds one trial in. Trials arrive in arbitrary order from
// the worker pool; every accumulator here is order-independent, with
// margins slotted by trial index.
func (a *Aggregate) update(trial int, rec *PlayoffRecord) {
	a.Completed++

	for t, wins := range rec.WinCounts {
		tr := a.Teams[t.Abbrev]
		tr.PlayoffCount++
		tr.SeedCounts[rec.Seeds[t]]++
		tr.PlayoffWins[wins]++
	}
	for _, tr := range a.Teams {
		tr.RegularSeasonWins[rec.Standings.Wins(tr.Team)]++
	}

	if a.Wager == nil {
		return
	}
	var sideWins [2]int
	for t, wins := range rec.WinCounts {
		if s := a.Wager.sideOf(t); s >= 0 {
			sideWins[s] += wins
		}
	}
	a.SideGameWins[0] += sideWins[0]
	a.SideGameWins[1] += sideWins[1]
	margin := sideWins[0] - sideWins[1]
	a.margins[trial] = float64(margin)
	switch {
	case margin > 0:
		a.SideTrialWins[0]++
	case margin < 0:
		a.SideTrialWins[1]++
	default:
		a.Pushes++
	}
}

// MarginStats returns the mean and standard deviation of the per-trial
// margin (side one's playoff wins minus side two's).
func (a *Aggregate) MarginStats() (mean, stddev float64) {
	if a.Wager == nil || len(a.margins) == 0 {
		return 0, 0
	}
	mean = stat.Mean(a.margins, nil)
	if len(a.margins) > 1 {
		stddev = stat.StdDev(a.margins, nil)
	}
	return mean, stddev
}

// Labels for the playoff-wins histogram at the win counts where a
// round begins.
var playoffRoundLabels = map[int]string{
	-1: "MISSED PLAYOFFS",
	0:  "1ST ROUND",
	4:  "CONF SEMIS",
	8:  "CONF FINALS",
	12: "FINALS",
	16: "CHAMPIONS",
}

// WriteReport writes the overall wager outcome followed by every
// team's distributions, best score first.
func (a *Aggregate) WriteReport(w io.Writer) error {
	if err := a.WriteOverall(w); err != nil {
		return err
	}
	ordered := make([]*TeamResults, 0, len(a.Teams))
	for _, tr := range a.Teams {
		ordered = append(ordered, tr)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score() != ordered[j].Score() {
			return ordered[i].Score() > ordered[j].Score()
		}
		return ordered[i].Team.Abbrev < ordered[j].Team.Abbrev
	})
	for _, tr := range ordered {
		if err := a.writeTeam(w, tr); err != nil {
			return err
		}
	}
	return nil
}

// WriteOverall writes the side-level outcome.
func (a *Aggregate) WriteOverall(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	fmt.Fprintf(tw, "Simulations:\t%d\n", a.Completed)
	if a.Wager != nil && a.Completed > 0 {
		n := float64(a.Completed)
		for i, side := range a.Wager.Sides {
			fmt.Fprintf(tw, "Pr[%s wins]:\t%6.2f%%\n", side.Name, 100*float64(a.SideTrialWins[i])/n)
		}
		fmt.Fprintf(tw, "Pr[push]:\t%6.2f%%\n", 100*float64(a.Pushes)/n)
		for i, side := range a.Wager.Sides {
			fmt.Fprintf(tw, "Avg %s playoff wins:\t%.2f\n", side.Name, float64(a.SideGameWins[i])/n)
		}
		mean, stddev := a.MarginStats()
		fmt.Fprintf(tw, "Margin (%s - %s):\t%+.2f ± %.2f\n", a.Wager.Sides[0].Name, a.Wager.Sides[1].Name, mean, stddev)
	}
	fmt.Fprintln(tw)
	return tw.Flush()
}

func (a *Aggregate) writeTeam(w io.Writer, tr *TeamResults) error {
	n := float64(a.Completed)
	fmt.Fprintln(w, strings.Repeat("-", 72))
	fmt.Fprintf(w, "%s (%s)\n", tr.Team.Abbrev, tr.Team.Name)
	fmt.Fprintf(w, "Playoff probability: %6.2f%%\n", 100*float64(tr.PlayoffCount)/n)
	fmt.Fprintf(w, "Title probability:   %6.2f%%\n", 100*float64(tr.TitleCount())/n)

	if err := writeDistribution(w, "Playoff wins", tr.PlayoffWins, a.Completed, true); err != nil {
		return err
	}
	if err := writeDistribution(w, "Regular season wins", tr.RegularSeasonWins, a.Completed, false); err != nil {
		return err
	}
	if tr.PlayoffCount > 0 {
		if err := writeDistribution(w, "Playoff seed", tr.SeedCounts, tr.PlayoffCount, false); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)
	return nil
}

// writeDistribution renders one histogram. For the playoff-wins
// histogram the rows span -1 (missed) through 16 (swept everything)
// with round labels at the boundaries; otherwise rows span the
// observed keys.
func writeDistribution(w io.Writer, label string, dist map[int]int, denominator int, playoffWins bool) error {
	if len(dist) == 0 && !playoffWins {
		return nil
	}
	observed := 0
	weighted := 0
	for k, v := range dist {
		observed += v
		weighted += k * v
	}

	starBase := observed
	if playoffWins {
		starBase = denominator // missed-playoffs trials count too
	}
	if starBase == 0 {
		return nil
	}
	starWeight := 100.0 / float64(starBase)

	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	fmt.Fprintf(tw, "\n%s (mean %.2f)\n", label, float64(weighted)/float64(denominator))

	lo, hi := keyRange(dist)
	if playoffWins {
		lo, hi = -1, 16
	}
	for k := lo; k <= hi; k++ {
		count := dist[k]
		if playoffWins && k == -1 {
			count = denominator - observed
		}
		prefix := ""
		if playoffWins {
			prefix = playoffRoundLabels[k]
		}
		key := fmt.Sprintf("%2d", k)
		if k < 0 {
			key = "  "
		}
		fmt.Fprintf(tw, "%s\t%s:\t%s\n", prefix, key, strings.Repeat("*", int(math.Ceil(float64(count)*starWeight))))
	}
	return tw.Flush()
}

func keyRange(dist map[int]int) (lo, hi int) {
	first := true
	for k := range dist {
		if first || k < lo {
			lo = k
		}
		if first || k > hi {
			hi = k
		}
		first = false
	}
	return lo, hi
}

// WriteStandings writes both conference tables.
func WriteStandings(w io.Writer, s *season.Standings) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, conf := range []team.Conference{team.Eastern, team.Western} {
		fmt.Fprintf(tw, "%s Conference\n", conf)
		for i, rec := range s.ConferenceTable(conf) {
			fmt.Fprintf(tw, "%2d\t%s\t%s\t%.3f\n", i+1, rec.Team.Abbrev, rec.Overall, rec.Overall.Pct())
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// WriteSeeding writes the ten playoff seeds per conference.
func WriteSeeding(w io.Writer, seeding *season.PlayoffSeeding) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, conf := range []team.Conference{team.Eastern, team.Western} {
		fmt.Fprintf(tw, "%s Conference seeds\n", conf)
		for i, t := range seeding.Conference(conf) {
			fmt.Fprintf(tw, "%2d\t%s\t%s\n", i+1, t.Abbrev, t.Name)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
