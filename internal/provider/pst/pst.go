// Package pst pulls transaction rows from prosportstransactions.com
// search results, one query per event category.
package pst

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/cbuckley/courtcast/internal/fetch"
	"github.com/cbuckley/courtcast/internal/provider"
)

// DefaultBaseURL is the production site root.
const DefaultBaseURL = "https://www.prosportstransactions.com"

const (
	searchPath = "/basketball/Search/SearchResults.php"
	dateLayout = "2006-01-02"
)

// Category selects one search checkbox. The string value is the query
// parameter the site expects.
type Category string

const (
	PlayerMovement Category = "PlayerMovementChkBx"
	InjuredList    Category = "ILChkBx"
	Injuries       Category = "InjuriesChkBx"
	Personal       Category = "PersonalChkBx"
	Disciplinary   Category = "DisciplinaryChkBx"
)

// Categories lists every category in a stable order.
func Categories() []Category {
	return []Category{PlayerMovement, InjuredList, Injuries, Personal, Disciplinary}
}

// String names the category for logs and event tagging.
func (c Category) String() string {
	switch c {
	case PlayerMovement:
		return "movement"
	case InjuredList:
		return "il"
	case Injuries:
		return "injury"
	case Personal:
		return "personal"
	case Disciplinary:
		return "discipline"
	}
	return string(c)
}

// Row is one transaction as listed, cells kept raw. Acquired and
// Relinquished may hold several bullet-prefixed entries.
type Row struct {
	Category     Category
	Date         time.Time
	Team         string
	Acquired     string
	Relinquished string
	Notes        string
}

// Client queries the transaction search.
type Client struct {
	fetch   *fetch.Client
	baseURL string
	logger  *slog.Logger
}

// New creates a transactions client. An empty baseURL selects the
// production site.
func New(f *fetch.Client, baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{fetch: f, baseURL: baseURL, logger: logger}
}

// Search walks the paginated results for one category over a date
// range. Pages hold 25 rows; the walk follows Next links until the
// last page.
func (c *Client) Search(ctx context.Context, cat Category, from, to time.Time) ([]Row, *provider.Result, error) {
	res := &provider.Result{}
	var rows []Row

	policy := policyFor(to)
	pageURL := c.searchURL(cat, from, to, 0)
	for pageURL != "" {
		page, next, err := c.page(ctx, cat, pageURL, policy, res)
		if err != nil {
			return nil, nil, fmt.Errorf("search %s: %w", cat, err)
		}
		rows = append(rows, page...)
		pageURL = next
	}

	c.logger.Debug("Searched transactions", "category", cat.String(), "rows", len(rows), "summary", res.Summary())
	return rows, res, nil
}

func (c *Client) searchURL(cat Category, from, to time.Time, start int) string {
	params := url.Values{}
	params.Set("Player", "")
	params.Set("Team", "")
	params.Set("BeginDate", from.Format(dateLayout))
	params.Set("EndDate", to.Format(dateLayout))
	params.Set(string(cat), "yes")
	params.Set("Submit", "Search")
	params.Set("start", strconv.Itoa(start))
	return c.baseURL + searchPath + "?" + params.Encode()
}

// policyFor caches settled date ranges forever. Results for a range
// that ended days ago never change.
func policyFor(to time.Time) fetch.Policy {
	if time.Since(to) > 72*time.Hour {
		return fetch.Forever
	}
	return fetch.SameDay
}

// page parses one results page and returns the absolute URL of the
// next one, empty on the last page.
func (c *Client) page(ctx context.Context, cat Category, pageURL string, policy fetch.Policy, res *provider.Result) ([]Row, string, error) {
	text, err := c.fetch.Text(ctx, pageURL, policy)
	if err != nil {
		return nil, "", err
	}
	if strings.Contains(text, "There were no matching transactions found.") {
		return nil, "", nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, "", fmt.Errorf("parse html: %w", err)
	}

	table := doc.Find("table.datatable")
	if table.Length() == 0 {
		return nil, "", fmt.Errorf("no results table on %s", pageURL)
	}

	var rows []Row
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		cells := tr.Find("td").Map(func(_ int, td *goquery.Selection) string {
			return provider.CleanCell(td.Text())
		})
		if len(cells) < 5 || cells[0] == "Date" {
			return
		}
		date, err := time.Parse(dateLayout, cells[0])
		if err != nil {
			res.AddErrorf("transaction row %d: bad date %q", i, cells[0])
			res.Skipped++
			return
		}
		if cells[1] == "" {
			// A player without a team retiring has no roster effect.
			res.Skipped++
			return
		}
		rows = append(rows, Row{
			Category:     cat,
			Date:         date,
			Team:         cells[1],
			Acquired:     cells[2],
			Relinquished: cells[3],
			Notes:        cells[4],
		})
		res.Rows++
	})

	return rows, nextLink(pageURL, doc), nil
}

// nextLink resolves the pagination anchor labeled "Next" against the
// page it appeared on.
func nextLink(pageURL string, doc *goquery.Document) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	var next string
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if provider.CleanCell(a.Text()) != "Next" {
			return true
		}
		href, ok := a.Attr("href")
		if !ok {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		next = base.ResolveReference(ref).String()
		return false
	})
	return next
}
