package livedata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/cchavez09/Premier-League-Analytics-Platform/internal/config"
	"github.com/cchavez09/Premier-League-Analytics-Platform/internal/logger"
	"github.com/cchavez09/Premier-League-Analytics-Platform/pkg/transport"
)

// Client fetches live league data from the third-party football data
// provider. It is read-only and plays no part in prediction.
type Client struct {
	baseURL          string
	apiKey           string
	competition      string
	standingsPageURL string
}

// LiveMatch is one fixture as reported by the provider
type LiveMatch struct {
	UTCDate   time.Time `json:"utcDate"`
	Status    string    `json:"status"`
	Matchday  int       `json:"matchday"`
	HomeTeam  string    `json:"homeTeam"`
	AwayTeam  string    `json:"awayTeam"`
	HomeGoals *int      `json:"homeGoals"`
	AwayGoals *int      `json:"awayGoals"`
}

// Standing is one league-table row
type Standing struct {
	Position       int    `json:"position"`
	Team           string `json:"team"`
	Played         int    `json:"played"`
	Won            int    `json:"won"`
	Draw           int    `json:"draw"`
	Lost           int    `json:"lost"`
	GoalDifference int    `json:"goalDifference"`
	Points         int    `json:"points"`
}

// NewClient builds a provider client from configuration
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:          strings.TrimRight(cfg.LiveAPIBaseURL, "/"),
		apiKey:           cfg.LiveAPIKey,
		competition:      cfg.LiveCompetition,
		standingsPageURL: cfg.StandingsPageURL,
	}
}

func (c *Client) headers() map[string]string {
	if c.apiKey == "" {
		return nil
	}
	return map[string]string{"X-Auth-Token": c.apiKey}
}

// Matches returns the competition's fixtures from the provider API
func (c *Client) Matches(ctx context.Context) ([]LiveMatch, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("no live data API key configured")
	}

	url := fmt.Sprintf("%s/competitions/%s/matches", c.baseURL, c.competition)
	data, err := transport.Get(ctx, url, c.headers())
	if err != nil {
		return nil, fmt.Errorf("fetching live matches: %w", err)
	}

	var payload struct {
		Matches []struct {
			UTCDate  time.Time `json:"utcDate"`
			Status   string    `json:"status"`
			Matchday int       `json:"matchday"`
			HomeTeam struct {
				Name string `json:"name"`
			} `json:"homeTeam"`
			AwayTeam struct {
				Name string `json:"name"`
			} `json:"awayTeam"`
			Score struct {
				FullTime struct {
					Home *int `json:"home"`
					Away *int `json:"away"`
				} `json:"fullTime"`
			} `json:"score"`
		} `json:"matches"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decoding live matches: %w", err)
	}

	matches := make([]LiveMatch, 0, len(payload.Matches))
	for _, m := range payload.Matches {
		matches = append(matches, LiveMatch{
			UTCDate:   m.UTCDate,
			Status:    m.Status,
			Matchday:  m.Matchday,
			HomeTeam:  m.HomeTeam.Name,
			AwayTeam:  m.AwayTeam.Name,
			HomeGoals: m.Score.FullTime.Home,
			AwayGoals: m.Score.FullTime.Away,
		})
	}
	logger.Info("Fetched live matches", len(matches))
	return matches, nil
}

// Standings returns the current league table. With an API key the provider
// API is used; without one we fall back to scraping a public standings page.
func (c *Client) Standings(ctx context.Context) ([]Standing, error) {
	if c.apiKey == "" {
		logger.Inform("No live data API key, scraping public standings page")
		return c.scrapeStandings(ctx)
	}

	url := fmt.Sprintf("%s/competitions/%s/standings", c.baseURL, c.competition)
	data, err := transport.Get(ctx, url, c.headers())
	if err != nil {
		return nil, fmt.Errorf("fetching standings: %w", err)
	}

	var payload struct {
		Standings []struct {
			Type  string `json:"type"`
			Table []struct {
				Position int `json:"position"`
				Team     struct {
					Name string `json:"name"`
				} `json:"team"`
				PlayedGames    int `json:"playedGames"`
				Won            int `json:"won"`
				Draw           int `json:"draw"`
				Lost           int `json:"lost"`
				GoalDifference int `json:"goalDifference"`
				Points         int `json:"points"`
			} `json:"table"`
		} `json:"standings"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decoding standings: %w", err)
	}

	for _, s := range payload.Standings {
		if s.Type != "TOTAL" {
			continue
		}
		table := make([]Standing, 0, len(s.Table))
		for _, row := range s.Table {
			table = append(table, Standing{
				Position:       row.Position,
				Team:           row.Team.Name,
				Played:         row.PlayedGames,
				Won:            row.Won,
				Draw:           row.Draw,
				Lost:           row.Lost,
				GoalDifference: row.GoalDifference,
				Points:         row.Points,
			})
		}
		return table, nil
	}
	return nil, fmt.Errorf("no TOTAL standings in provider response")
}

// scrapeStandings parses the first HTML table on the configured public
// standings page. Row shape expected: position, team, played, won, drawn,
// lost, goal difference, points somewhere among the leading numeric cells.
func (c *Client) scrapeStandings(ctx context.Context) ([]Standing, error) {
	if c.standingsPageURL == "" {
		return nil, fmt.Errorf("no standings page configured")
	}

	html, err := transport.Get(ctx, c.standingsPageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching standings page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing standings page: %w", err)
	}

	var table []Standing
	doc.Find("table").First().Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 8 {
			return
		}
		st := Standing{
			Position:       atoiCell(cells.Eq(0)),
			Team:           strings.TrimSpace(cells.Eq(1).Text()),
			Played:         atoiCell(cells.Eq(2)),
			Won:            atoiCell(cells.Eq(3)),
			Draw:           atoiCell(cells.Eq(4)),
			Lost:           atoiCell(cells.Eq(5)),
			GoalDifference: atoiCell(cells.Eq(6)),
			Points:         atoiCell(cells.Eq(7)),
		}
		if st.Team != "" {
			table = append(table, st)
		}
	})

	if len(table) == 0 {
		return nil, fmt.Errorf("no standings rows found at %s", c.standingsPageURL)
	}
	logger.Info("Scraped standings rows", len(table))
	return table, nil
}

func atoiCell(sel *goquery.Selection) int {
	n, err := strconv.Atoi(strings.TrimSpace(sel.Text()))
	if err != nil {
		return 0
	}
	return n
}
