// Package bbref crawls the basketball-reference.com player index, one
// page per surname letter, into a player directory.
package bbref

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/cbuckley/courtcast/internal/fetch"
	"github.com/cbuckley/courtcast/internal/player"
	"github.com/cbuckley/courtcast/internal/provider"
)

// DefaultBaseURL is the production site root.
const DefaultBaseURL = "https://www.basketball-reference.com"

// birthLayout matches the index's "June 24, 1968" birth dates.
const birthLayout = "January 2, 2006"

// Client crawls player index pages.
type Client struct {
	fetch   *fetch.Client
	baseURL string
	logger  *slog.Logger
}

// New creates an index crawler. An empty baseURL selects the
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

// Directory crawls every letter page and assembles the player
// directory. A letter page that fails to fetch is recorded in the
// result and skipped; rows without a birth date are skipped too, since
// the directory disambiguates namesakes by birth date.
func (c *Client) Directory(ctx context.Context) (*player.Directory, *provider.Result, error) {
	res := &provider.Result{}
	var players []player.Player

	for letter := 'a'; letter <= 'z'; letter++ {
		page, err := c.letter(ctx, letter, res)
		if err != nil {
			res.AddErrorf("letter %c: %v", letter, err)
			continue
		}
		players = append(players, page...)
	}
	if len(players) == 0 {
		return nil, res, fmt.Errorf("player index crawl produced no players")
	}

	dir, err := player.NewDirectory(players)
	if err != nil {
		return nil, res, fmt.Errorf("build directory: %w", err)
	}
	c.logger.Info("Crawled player index", "players", dir.Len(), "summary", res.Summary())
	return dir, res, nil
}

func (c *Client) letter(ctx context.Context, letter rune, res *provider.Result) ([]player.Player, error) {
	u := fmt.Sprintf("%s/players/%c/", c.baseURL, letter)
	text, err := c.fetch.Text(ctx, u, fetch.SameDay)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var players []player.Player
	doc.Find("table#players tbody tr").Each(func(_ int, row *goquery.Selection) {
		nameCell := row.Find(`th[data-stat="player"]`)
		link := nameCell.Find("a")
		name := provider.CleanCell(link.Text())
		if name == "" {
			return
		}

		birthText := provider.CleanCell(row.Find(`td[data-stat="birth_date"]`).Text())
		if birthText == "" {
			res.Skipped++
			return
		}
		birthdate, err := time.Parse(birthLayout, birthText)
		if err != nil {
			res.AddErrorf("player %s: bad birth date %q", name, birthText)
			res.Skipped++
			return
		}

		href, _ := link.Attr("href")
		players = append(players, player.Player{
			Name:      name,
			Birthdate: birthdate,
			URL:       c.baseURL + href,
			Active:    nameCell.Find("strong").Length() > 0,
		})
		res.Rows++
	})
	return players, nil
}
