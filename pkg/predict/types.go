package predict

import (
	"context"
	"strings"
	"time"
)

// Outcome is a full-time result label as emitted to API callers
type Outcome string

const (
	OutcomeHomeWin Outcome = "home_win"
	OutcomeDraw    Outcome = "draw"
	OutcomeAwayWin Outcome = "away_win"
)

// PredictionRequest carries the four mandatory inputs of a prediction.
// Constructed once per incoming request and never reused.
type PredictionRequest struct {
	HomeTeam       string `json:"homeTeam"`
	AwayTeam       string `json:"awayTeam"`
	HomeSeasonCode string `json:"homeSeasonCode"`
	AwaySeasonCode string `json:"awaySeasonCode"`
}

// Validate checks that all four fields are present and non-blank.
// This runs before any resolution is attempted.
func (r PredictionRequest) Validate() error {
	missing := func(field string) error {
		return &Error{Kind: KindInvalidRequest, Message: "missing required field: " + field}
	}
	if strings.TrimSpace(r.HomeTeam) == "" {
		return missing("homeTeam")
	}
	if strings.TrimSpace(r.AwayTeam) == "" {
		return missing("awayTeam")
	}
	if strings.TrimSpace(r.HomeSeasonCode) == "" {
		return missing("homeSeasonCode")
	}
	if strings.TrimSpace(r.AwaySeasonCode) == "" {
		return missing("awaySeasonCode")
	}
	return nil
}

// Probabilities is a calibrated distribution over the three outcomes.
// Each value lies in [0,1] and the three sum to 1 within tolerance.
type Probabilities struct {
	HomeWin float64 `json:"home_win"`
	Draw    float64 `json:"draw"`
	AwayWin float64 `json:"away_win"`
}

// Argmax returns the most likely outcome. Ties break deterministically in
// the fixed order home_win > draw > away_win.
func (p Probabilities) Argmax() Outcome {
	best, outcome := p.HomeWin, OutcomeHomeWin
	if p.Draw > best {
		best, outcome = p.Draw, OutcomeDraw
	}
	if p.AwayWin > best {
		outcome = OutcomeAwayWin
	}
	return outcome
}

// PredictionResult is the stable response shape of a completed prediction
type PredictionResult struct {
	HomeTeam      string        `json:"home_team"`
	AwayTeam      string        `json:"away_team"`
	HomeSeason    string        `json:"home_season"`
	AwaySeason    string        `json:"away_season"`
	Probabilities Probabilities `json:"probabilities"`
	Prediction    Outcome       `json:"prediction"`
}

// MatchRecord is one historical match row, immutable once retrieved.
// Result holds the full-time result tag: "H", "A" or "D".
type MatchRecord struct {
	Date       time.Time `json:"date"`
	HomeTeam   string    `json:"home_team"`
	AwayTeam   string    `json:"away_team"`
	HomeGoals  int       `json:"fthg"`
	AwayGoals  int       `json:"ftag"`
	Result     string    `json:"ftr"`
	SeasonCode string    `json:"season"`
}

// Resolver maps human-entered names and codes to stable store identifiers.
// Implementations return ErrNotFound for zero or ambiguous matches and must
// never guess.
type Resolver interface {
	FindTeamIDByName(ctx context.Context, name string) (int64, error)
	FindSeasonIDByCode(ctx context.Context, code string) (int64, error)
}

// HistoryRepository supplies historical matches for a resolved team/season
// pair, ordered by date ascending. An empty slice is not an error.
type HistoryRepository interface {
	ListMatches(ctx context.Context, teamID, seasonID int64) ([]MatchRecord, error)
}
