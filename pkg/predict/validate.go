package predict

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// probabilitySumTolerance is how far from 1.0 the probability sum may drift
// before renormalization kicks in
const probabilitySumTolerance = 1e-3

// ParseDocument decodes raw engine output as a single JSON object. The
// engine claimed success by this point, so a decode failure is a protocol
// violation, reported distinctly from an abnormal exit.
func ParseDocument(raw []byte) (map[string]any, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, &Error{
			Kind:    KindMalformedOutput,
			Message: "prediction engine produced no output",
		}
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, &Error{
			Kind:        KindMalformedOutput,
			Message:     "prediction engine output was not a JSON object",
			Diagnostics: Truncate(trimmed),
			cause:       err,
		}
	}
	return doc, nil
}

// Validate bounds-checks and normalizes a parsed engine document into a
// PredictionResult. Checks run in order: key presence, numeric range, sum
// tolerance, then label derivation. The predicted label is always recomputed
// as the argmax of the probabilities; a label supplied by the engine is
// never trusted. Team and season identity fall back to the request when the
// engine omits them.
func Validate(doc map[string]any, req PredictionRequest) (*PredictionResult, error) {
	rawProbs, ok := doc["probabilities"].(map[string]any)
	if !ok {
		return nil, NewError(KindValidation, "engine output is missing the probabilities object")
	}

	var values [3]float64
	for i, key := range []string{"home_win", "draw", "away_win"} {
		v, ok := rawProbs[key]
		if !ok {
			return nil, NewError(KindValidation, fmt.Sprintf("probability %q is missing", key))
		}
		f, ok := v.(float64)
		if !ok {
			return nil, NewError(KindValidation, fmt.Sprintf("probability %q is not a number", key))
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, NewError(KindValidation, fmt.Sprintf("probability %q is not finite", key))
		}
		if f < 0 || f > 1 {
			return nil, NewError(KindValidation, fmt.Sprintf("probability %q is outside [0,1]: %g", key, f))
		}
		values[i] = f
	}

	sum := values[0] + values[1] + values[2]
	if sum <= 0 {
		return nil, NewError(KindValidation, fmt.Sprintf("probabilities sum to %g, cannot normalize", sum))
	}
	if math.Abs(sum-1) > probabilitySumTolerance {
		for i := range values {
			values[i] /= sum
		}
	}

	probs := Probabilities{
		HomeWin: values[0],
		Draw:    values[1],
		AwayWin: values[2],
	}

	return &PredictionResult{
		HomeTeam:      stringField(doc, "home_team", req.HomeTeam),
		AwayTeam:      stringField(doc, "away_team", req.AwayTeam),
		HomeSeason:    stringField(doc, "home_season", req.HomeSeasonCode),
		AwaySeason:    stringField(doc, "away_season", req.AwaySeasonCode),
		Probabilities: probs,
		Prediction:    probs.Argmax(),
	}, nil
}

// stringField returns a non-blank string value from the document, or the
// fallback when the key is absent or blank
func stringField(doc map[string]any, key, fallback string) string {
	if v, ok := doc[key].(string); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}
