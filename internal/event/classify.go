package event

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/cbuckley/courtcast/internal/player"
	"github.com/cbuckley/courtcast/internal/provider"
	"github.com/cbuckley/courtcast/internal/provider/pst"
	"github.com/cbuckley/courtcast/internal/team"
)

// Classifier turns transaction feed rows into availability events.
type Classifier struct {
	registry *team.Registry
	dir      *player.Directory
	rules    *Rules
	logger   *slog.Logger
}

func NewClassifier(registry *team.Registry, dir *player.Directory, rules *Rules, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{registry: registry, dir: dir, rules: rules, logger: logger}
}

// Classify maps feed rows to events. Rows the rule table excludes are
// skipped; rows that cannot be resolved are reported as errors, never
// silently dropped.
func (c *Classifier) Classify(rows []pst.Row) ([]Event, *provider.Result) {
	res := &provider.Result{}
	var events []Event
	for _, row := range rows {
		events = append(events, c.classifyRow(row, res)...)
	}
	return events, res
}

func (c *Classifier) classifyRow(row pst.Row, res *provider.Result) []Event {
	if row.Category == pst.PlayerMovement && c.containsJobTerm(row.Notes) {
		res.Skipped++
		return nil
	}

	var events []Event
	for _, sd := range []side{sideAcquired, sideRelinquished} {
		cell := row.Acquired
		if sd == sideRelinquished {
			cell = row.Relinquished
		}
		if strings.TrimSpace(cell) == "" {
			continue
		}
		events = append(events, c.classifySide(row, sd, cell, res)...)
	}
	return events
}

func (c *Classifier) classifySide(row pst.Row, sd side, cell string, res *provider.Result) []Event {
	kind, ok := defaultKind(row.Category, sd)
	if !ok {
		res.AddErrorf("%s: unhandled category %q", row.Date.Format("2006-01-02"), row.Category)
		return nil
	}
	if rule, matched := c.rules.match(row.Category.String(), sd, row.Date, row.Team, cell, row.Notes); matched {
		if rule.skip {
			res.Skipped++
			return nil
		}
		kind = rule.kind
	}

	// The skip rules run first so rows about defunct or out-of-league
	// teams never reach the registry.
	tm, err := c.registry.Parse(c.rules.teamAlias(row.Team))
	if err != nil {
		res.AddErrorf("%s: team %q: %v", row.Date.Format("2006-01-02"), row.Team, err)
		return nil
	}

	players, problems := c.extractPlayers(cell)
	for _, p := range problems {
		res.AddErrorf("%s %s: %s", row.Date.Format("2006-01-02"), tm.Abbrev, p)
	}

	var events []Event
	for _, p := range players {
		if p.IsPlaceholder() {
			if c.rules.placeholderTolerated(row.Notes) {
				res.Skipped++
				continue
			}
			res.AddErrorf("%s %s: %q is not in the player directory (notes: %s)",
				row.Date.Format("2006-01-02"), tm.Abbrev, p.Name, row.Notes)
			continue
		}
		events = append(events, Event{
			Kind:   kind,
			Date:   row.Date,
			Team:   tm,
			Player: p,
			Notes:  row.Notes,
		})
		res.Rows++
	}
	return events
}

// containsJobTerm flags notes naming front office or coaching moves.
func (c *Classifier) containsJobTerm(notes string) bool {
	for _, w := range strings.Fields(notes) {
		if c.rules.jobs[strings.ToLower(stripPunct(w))] {
			return true
		}
	}
	return false
}

// defaultKind is what each feed category means for each column when no
// rule overrides it.
func defaultKind(cat pst.Category, sd side) (Kind, bool) {
	switch cat {
	case pst.PlayerMovement:
		if sd == sideAcquired {
			return Acquisition, true
		}
		return Relinquishing, true
	case pst.InjuredList:
		if sd == sideAcquired {
			return ILActivation, true
		}
		return ILPlacement, true
	case pst.Injuries, pst.Personal:
		if sd == sideAcquired {
			return ReturnToLineup, true
		}
		return MissedGame, true
	case pst.Disciplinary:
		if sd == sideAcquired {
			return ReturnToLineup, true
		}
		return Suspension, true
	}
	return 0, false
}

// Collect fetches every feed category for the window and classifies
// the union, ordered by date.
func Collect(ctx context.Context, client *pst.Client, c *Classifier, from, to time.Time) ([]Event, *provider.Result, error) {
	res := &provider.Result{}
	var events []Event
	for _, cat := range pst.Categories() {
		rows, searchRes, err := client.Search(ctx, cat, from, to)
		if searchRes != nil {
			res.Add(*searchRes)
		}
		if err != nil {
			return nil, res, err
		}
		classified, classifyRes := c.Classify(rows)
		res.Add(*classifyRes)
		events = append(events, classified...)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	c.logger.Info("Classified transactions",
		"events", len(events), "skipped", res.Skipped, "errors", len(res.Errors))
	return events, res, nil
}
