package predict

import (
	"context"
	"errors"
	"fmt"

	"github.com/cchavez09/Premier-League-Analytics-Platform/internal/logger"
)

// Predictor sequences one prediction request end to end:
// resolve identifiers, gather optional context, invoke the engine, validate
// its output. Every failure mode maps to a distinguishable error kind and is
// terminal; there are no automatic retries.
type Predictor struct {
	resolver       Resolver
	history        HistoryRepository
	engine         Engine
	contextMatches int
}

// NewPredictor wires a prediction pipeline. contextMatches caps how many
// recent matches per team are forwarded to the engine; zero disables
// context gathering.
func NewPredictor(resolver Resolver, history HistoryRepository, engine Engine, contextMatches int) *Predictor {
	return &Predictor{
		resolver:       resolver,
		history:        history,
		engine:         engine,
		contextMatches: contextMatches,
	}
}

// Predict runs the full pipeline for one request. The passed context bounds
// the whole request; cancellation terminates any in-flight engine process.
func (p *Predictor) Predict(ctx context.Context, req PredictionRequest) (*PredictionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	homeID, err := p.resolveTeam(ctx, req.HomeTeam)
	if err != nil {
		return nil, err
	}
	awayID, err := p.resolveTeam(ctx, req.AwayTeam)
	if err != nil {
		return nil, err
	}
	homeSeasonID, err := p.resolveSeason(ctx, req.HomeSeasonCode)
	if err != nil {
		return nil, err
	}
	awaySeasonID, err := p.resolveSeason(ctx, req.AwaySeasonCode)
	if err != nil {
		return nil, err
	}

	// Context gathering is best effort. A failure here downgrades the
	// engine input, it never aborts the request.
	matchContext := p.gatherContext(ctx, homeID, homeSeasonID, awayID, awaySeasonID)

	raw, err := p.engine.Score(ctx, Invocation{
		HomeTeam:       req.HomeTeam,
		AwayTeam:       req.AwayTeam,
		HomeSeasonCode: req.HomeSeasonCode,
		AwaySeasonCode: req.AwaySeasonCode,
		Context:        matchContext,
	})
	if err != nil {
		return nil, err
	}

	doc, err := ParseDocument(raw)
	if err != nil {
		return nil, err
	}

	result, err := Validate(doc, req)
	if err != nil {
		return nil, err
	}

	logger.Info("Prediction completed", req.HomeTeam, "vs", req.AwayTeam, string(result.Prediction))
	return result, nil
}

func (p *Predictor) resolveTeam(ctx context.Context, name string) (int64, error) {
	id, err := p.resolver.FindTeamIDByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, &Error{
				Kind:    KindInputNotFound,
				Message: fmt.Sprintf("no unique team matches %q", name),
				cause:   err,
			}
		}
		return 0, fmt.Errorf("resolving team %q: %w", name, err)
	}
	return id, nil
}

func (p *Predictor) resolveSeason(ctx context.Context, code string) (int64, error) {
	id, err := p.resolver.FindSeasonIDByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, &Error{
				Kind:    KindInputNotFound,
				Message: fmt.Sprintf("no season matches code %q", code),
				cause:   err,
			}
		}
		return 0, fmt.Errorf("resolving season %q: %w", code, err)
	}
	return id, nil
}

// gatherContext fetches recent matches for both sides. Any lookup failure is
// recovered locally as "no additional context".
func (p *Predictor) gatherContext(ctx context.Context, homeID, homeSeasonID, awayID, awaySeasonID int64) *MatchContext {
	if p.contextMatches <= 0 || p.history == nil {
		return nil
	}

	homeRecent := p.recentMatches(ctx, homeID, homeSeasonID)
	awayRecent := p.recentMatches(ctx, awayID, awaySeasonID)
	if len(homeRecent) == 0 && len(awayRecent) == 0 {
		return nil
	}
	return &MatchContext{HomeRecent: homeRecent, AwayRecent: awayRecent}
}

// recentMatches returns up to contextMatches of the most recent matches for
// a team/season pair, preserving chronological order
func (p *Predictor) recentMatches(ctx context.Context, teamID, seasonID int64) []MatchRecord {
	matches, err := p.history.ListMatches(ctx, teamID, seasonID)
	if err != nil {
		logger.Warn("Context gathering failed, proceeding without it", teamID, seasonID, err)
		return nil
	}
	if len(matches) > p.contextMatches {
		matches = matches[len(matches)-p.contextMatches:]
	}
	return matches
}
