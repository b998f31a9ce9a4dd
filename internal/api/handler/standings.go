package handler

import (
	"net/http"
	"strconv"

	"github.com/cbuckley/courtcast/internal/api/respond"
	"github.com/cbuckley/courtcast/internal/season"
	"github.com/cbuckley/courtcast/internal/team"
)

type teamRow struct {
	Abbrev     string `json:"abbrev"`
	Name       string `json:"name"`
	Conference string `json:"conference"`
	Division   string `json:"division"`
	Defunct    bool   `json:"defunct,omitempty"`
}

type standingRow struct {
	Rank       int     `json:"rank"`
	Team       string  `json:"team"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Pct        float64 `json:"pct"`
	ConfWins   int     `json:"conference_wins"`
	ConfLosses int     `json:"conference_losses"`
	PointDiff  int     `json:"point_differential"`
}

// Teams serves the full registry.
func (h *Handler) Teams(w http.ResponseWriter, r *http.Request) {
	all := h.registry.All()
	rows := make([]teamRow, 0, len(all))
	for _, t := range all {
		rows = append(rows, teamRow{
			Abbrev:     t.Abbrev,
			Name:       t.Name,
			Conference: string(t.Conference),
			Division:   t.Division,
			Defunct:    t.Defunct(),
		})
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"teams": rows})
}

// Standings recomputes conference standings from archived games.
func (h *Handler) Standings(w http.ResponseWriter, r *http.Request) {
	standings, ok := h.loadStandings(w, r)
	if !ok {
		return
	}
	out := make(map[string][]standingRow, 2)
	for _, conf := range []team.Conference{team.Eastern, team.Western} {
		table := standings.ConferenceTable(conf)
		rows := make([]standingRow, 0, len(table))
		for i, rec := range table {
			rows = append(rows, standingRow{
				Rank:       i + 1,
				Team:       rec.Team.Abbrev,
				Wins:       rec.Overall.Wins,
				Losses:     rec.Overall.Losses,
				Pct:        rec.Overall.Pct(),
				ConfWins:   rec.Conference.Wins,
				ConfLosses: rec.Conference.Losses,
				PointDiff:  rec.PointDiff,
			})
		}
		out[string(conf)] = rows
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Seeding serves the ten playoff seeds per conference.
func (h *Handler) Seeding(w http.ResponseWriter, r *http.Request) {
	standings, ok := h.loadStandings(w, r)
	if !ok {
		return
	}
	seeding := standings.PlayoffSeeding()
	out := make(map[string][]string, 2)
	for _, conf := range []team.Conference{team.Eastern, team.Western} {
		seeds := seeding.Conference(conf)
		abbrevs := make([]string, 0, len(seeds))
		for _, t := range seeds {
			abbrevs = append(abbrevs, t.Abbrev)
		}
		out[string(conf)] = abbrevs
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// loadStandings reads ?season= games from the archive and builds the
// season engine's standings.
func (h *Handler) loadStandings(w http.ResponseWriter, r *http.Request) (*season.Standings, bool) {
	if !h.requireArchive(w) {
		return nil, false
	}
	seasonYear := h.cfg.Season
	if q := r.URL.Query().Get("season"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			respond.WriteError(w, http.StatusBadRequest, "BAD_SEASON", "season must be a year")
			return nil, false
		}
		seasonYear = n
	}

	games, err := h.pool.GamesBySeason(r.Context(), h.registry, seasonYear)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "ARCHIVE_READ", "read archived games", err.Error())
		return nil, false
	}
	if len(games) == 0 {
		respond.WriteError(w, http.StatusNotFound, "NO_SEASON", "no games archived for that season")
		return nil, false
	}

	completed := make([]*season.Game, 0, len(games))
	for _, g := range games {
		if g.Completed() {
			completed = append(completed, g)
		}
	}
	standings, err := season.NewStandings(h.registry, completed)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "STANDINGS", "build standings", err.Error())
		return nil, false
	}
	return standings, true
}
