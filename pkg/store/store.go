package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cchavez09/Premier-League-Analytics-Platform/internal/logger"
	"github.com/cchavez09/Premier-League-Analytics-Platform/pkg/predict"
)

// dateLayout is how match dates are stored; ISO dates keep the textual sort
// order equal to the chronological one.
const dateLayout = "2006-01-02"

// Team is a row in the teams table
type Team struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Season is a row in the seasons table. Code is an opaque, case-sensitive
// token; StartYear gives the total order over seasons.
type Season struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	StartYear int    `json:"start_year"`
}

// Store wraps a sqlite connection and provides read access to teams,
// seasons and standardized historical matches. It is passed explicitly into
// its consumers; there is no package-level connection state.
type Store struct {
	db *sql.DB
}

// New wraps an existing database handle, which makes the store testable
// with substitute databases
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens the sqlite database at the given path and verifies the
// connection early
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	logger.Info("Database opened", path)
	return &Store{db: db}, nil
}

// Close closes the underlying database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the necessary tables and indexes if they do not exist
func (s *Store) Migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS teams (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS seasons (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			code       TEXT NOT NULL UNIQUE,
			start_year INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS standardized_matches (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			season_id    INTEGER NOT NULL REFERENCES seasons(id),
			date         TEXT NOT NULL,
			home_team_id INTEGER NOT NULL REFERENCES teams(id),
			away_team_id INTEGER NOT NULL REFERENCES teams(id),
			home_team    TEXT NOT NULL,
			away_team    TEXT NOT NULL,
			fthg         INTEGER NOT NULL,
			ftag         INTEGER NOT NULL,
			ftr          TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_matches_season ON standardized_matches(season_id);`,
		`CREATE INDEX IF NOT EXISTS idx_matches_home ON standardized_matches(home_team_id);`,
		`CREATE INDEX IF NOT EXISTS idx_matches_away ON standardized_matches(away_team_id);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}

/////////////////////////////////////////////////////////////////////////
////// Identifier Resolution
/////////////////////////////////////////////////////////////////////////

// FindTeamIDByName resolves a human-entered team name to a team id.
// Matching is case-insensitive and tolerant of partial substrings. A name
// that matches zero teams, or more than one without matching any of them
// exactly, resolves to predict.ErrNotFound rather than a guess.
func (s *Store) FindTeamIDByName(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, predict.ErrNotFound
	}

	const q = `
		SELECT id, name
		FROM teams
		WHERE name LIKE '%' || ? || '%' COLLATE NOCASE
		ORDER BY name
	`
	rows, err := s.db.QueryContext(ctx, q, name)
	if err != nil {
		return 0, fmt.Errorf("querying teams by name: %w", err)
	}
	defer rows.Close()

	var candidates []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return 0, fmt.Errorf("scanning team row: %w", err)
		}
		candidates = append(candidates, t)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterating team rows: %w", err)
	}

	switch len(candidates) {
	case 0:
		return 0, predict.ErrNotFound
	case 1:
		return candidates[0].ID, nil
	default:
		// "United" is ambiguous, but "Everton" typed in full should not
		// fail just because it is also a substring of another row. An
		// exact case-insensitive hit wins; anything else stays ambiguous.
		for _, c := range candidates {
			if strings.EqualFold(c.Name, name) {
				return c.ID, nil
			}
		}
		logger.Debug("Ambiguous team name", name, len(candidates))
		return 0, predict.ErrNotFound
	}
}

// FindSeasonIDByCode resolves a season code to a season id. Codes are
// opaque tokens matched exactly against the canonical stored code.
func (s *Store) FindSeasonIDByCode(ctx context.Context, code string) (int64, error) {
	code = strings.TrimSpace(code)
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM seasons WHERE code = ?`, code).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, predict.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("querying season by code: %w", err)
	}
	return id, nil
}

/////////////////////////////////////////////////////////////////////////
////// Match History
/////////////////////////////////////////////////////////////////////////

// ListMatches returns all historical matches involving a team in a season,
// ordered by date ascending. No matches is an empty slice, not an error.
func (s *Store) ListMatches(ctx context.Context, teamID, seasonID int64) ([]predict.MatchRecord, error) {
	const q = `
		SELECT sm.date, sm.home_team, sm.away_team, sm.fthg, sm.ftag, sm.ftr, se.code
		FROM standardized_matches sm
		JOIN seasons se ON se.id = sm.season_id
		WHERE sm.season_id = ?
		  AND (sm.home_team_id = ? OR sm.away_team_id = ?)
		ORDER BY sm.date ASC, sm.id ASC
	`
	rows, err := s.db.QueryContext(ctx, q, seasonID, teamID, teamID)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	defer rows.Close()

	matches := []predict.MatchRecord{}
	for rows.Next() {
		var m predict.MatchRecord
		var date string
		if err := rows.Scan(&date, &m.HomeTeam, &m.AwayTeam, &m.HomeGoals, &m.AwayGoals, &m.Result, &m.SeasonCode); err != nil {
			return nil, fmt.Errorf("scanning match row: %w", err)
		}
		m.Date, err = time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parsing match date %q: %w", date, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating match rows: %w", err)
	}
	return matches, nil
}

/////////////////////////////////////////////////////////////////////////
////// Dashboard Queries
/////////////////////////////////////////////////////////////////////////

// ListSeasons returns all seasons, newest first
func (s *Store) ListSeasons(ctx context.Context) ([]Season, error) {
	const q = `SELECT id, code, start_year FROM seasons ORDER BY start_year DESC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying seasons: %w", err)
	}
	defer rows.Close()
	return scanSeasons(rows)
}

// ListSeasonTeams returns the teams that played at least one match in the
// given season, ordered by name
func (s *Store) ListSeasonTeams(ctx context.Context, seasonID int64) ([]Team, error) {
	const q = `
		SELECT DISTINCT t.id, t.name
		FROM teams t
		WHERE EXISTS (
			SELECT 1 FROM standardized_matches sm
			WHERE sm.season_id = ?
			  AND (sm.home_team_id = t.id OR sm.away_team_id = t.id)
		)
		ORDER BY t.name
	`
	rows, err := s.db.QueryContext(ctx, q, seasonID)
	if err != nil {
		return nil, fmt.Errorf("querying season teams: %w", err)
	}
	defer rows.Close()

	teams := []Team{}
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// ListTeamSeasons returns the seasons in which a team appears, newest first
func (s *Store) ListTeamSeasons(ctx context.Context, teamID int64) ([]Season, error) {
	const q = `
		SELECT DISTINCT se.id, se.code, se.start_year
		FROM seasons se
		JOIN standardized_matches sm ON sm.season_id = se.id
		WHERE sm.home_team_id = ? OR sm.away_team_id = ?
		ORDER BY se.start_year DESC
	`
	rows, err := s.db.QueryContext(ctx, q, teamID, teamID)
	if err != nil {
		return nil, fmt.Errorf("querying team seasons: %w", err)
	}
	defer rows.Close()
	return scanSeasons(rows)
}

func scanSeasons(rows *sql.Rows) ([]Season, error) {
	seasons := []Season{}
	for rows.Next() {
		var se Season
		if err := rows.Scan(&se.ID, &se.Code, &se.StartYear); err != nil {
			return nil, fmt.Errorf("scanning season row: %w", err)
		}
		seasons = append(seasons, se)
	}
	return seasons, rows.Err()
}

/////////////////////////////////////////////////////////////////////////
////// Seed Helpers
/////////////////////////////////////////////////////////////////////////

// InsertTeam adds a team and returns its id
func (s *Store) InsertTeam(ctx context.Context, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO teams (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("inserting team %s: %w", name, err)
	}
	return res.LastInsertId()
}

// InsertSeason adds a season and returns its id
func (s *Store) InsertSeason(ctx context.Context, code string, startYear int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO seasons (code, start_year) VALUES (?, ?)`, code, startYear)
	if err != nil {
		return 0, fmt.Errorf("inserting season %s: %w", code, err)
	}
	return res.LastInsertId()
}

// InsertMatch adds one standardized historical match row
func (s *Store) InsertMatch(ctx context.Context, seasonID int64, date time.Time, homeTeamID, awayTeamID int64, homeTeam, awayTeam string, fthg, ftag int, ftr string) error {
	const q = `
		INSERT INTO standardized_matches
			(season_id, date, home_team_id, away_team_id, home_team, away_team, fthg, ftag, ftr)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, q,
		seasonID, date.Format(dateLayout), homeTeamID, awayTeamID, homeTeam, awayTeam, fthg, ftag, ftr)
	if err != nil {
		return fmt.Errorf("inserting match: %w", err)
	}
	return nil
}
