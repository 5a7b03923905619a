package api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/cchavez09/Premier-League-Analytics-Platform/internal/config"
	"github.com/cchavez09/Premier-League-Analytics-Platform/pkg/api"
	"github.com/cchavez09/Premier-League-Analytics-Platform/pkg/predict"
	"github.com/cchavez09/Premier-League-Analytics-Platform/pkg/store"
)

type stubEngine struct {
	output []byte
	err    error
}

func (e *stubEngine) Score(_ context.Context, _ predict.Invocation) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.output, nil
}

const stubOutput = `{"home_team":"Arsenal","away_team":"Chelsea",` +
	`"home_season":"202324","away_season":"202324",` +
	`"probabilities":{"home_win":0.6,"draw":0.25,"away_win":0.15}}`

func newTestServer(t *testing.T, engine predict.Engine) *httptest.Server {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	st := store.New(db)
	require.NoError(t, st.Migrate())

	ctx := context.Background()
	arsenal, err := st.InsertTeam(ctx, "Arsenal")
	require.NoError(t, err)
	chelsea, err := st.InsertTeam(ctx, "Chelsea")
	require.NoError(t, err)
	season, err := st.InsertSeason(ctx, "202324", 2023)
	require.NoError(t, err)
	require.NoError(t, st.InsertMatch(ctx, season,
		time.Date(2023, 8, 12, 0, 0, 0, 0, time.UTC),
		arsenal, chelsea, "Arsenal", "Chelsea", 2, 1, "H"))

	cfg := config.Default()
	predictor := predict.NewPredictor(st, st, engine, cfg.ContextMatches)
	server := api.NewServer(cfg, st, predictor, nil)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postPredict(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/predictions/predict", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) (kind, message string) {
	t.Helper()
	var body struct {
		Error struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error.Kind, body.Error.Message
}

func TestPredictEndpointSuccess(t *testing.T) {
	ts := newTestServer(t, &stubEngine{output: []byte(stubOutput)})

	resp := postPredict(t, ts, `{
		"homeTeam": "Arsenal", "awayTeam": "Chelsea",
		"homeSeasonCode": "202324", "awaySeasonCode": "202324"
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result predict.PredictionResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	assert.Equal(t, predict.OutcomeHomeWin, result.Prediction)
	assert.Equal(t, "Arsenal", result.HomeTeam)
	sum := result.Probabilities.HomeWin + result.Probabilities.Draw + result.Probabilities.AwayWin
	assert.InDelta(t, 1.0, sum, 1e-3)
}

func TestPredictEndpointUnknownTeam(t *testing.T) {
	ts := newTestServer(t, &stubEngine{output: []byte(stubOutput)})

	resp := postPredict(t, ts, `{
		"homeTeam": "Zzzqq", "awayTeam": "Chelsea",
		"homeSeasonCode": "202324", "awaySeasonCode": "202324"
	}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	kind, _ := decodeError(t, resp)
	assert.Equal(t, "input_not_found", kind)
}

func TestPredictEndpointMissingField(t *testing.T) {
	ts := newTestServer(t, &stubEngine{output: []byte(stubOutput)})

	resp := postPredict(t, ts, `{"homeTeam": "Arsenal"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	kind, _ := decodeError(t, resp)
	assert.Equal(t, "invalid_request", kind)
}

func TestPredictEndpointBadJSONBody(t *testing.T) {
	ts := newTestServer(t, &stubEngine{output: []byte(stubOutput)})

	resp := postPredict(t, ts, `{nope`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPredictEndpointEngineFailureHidesDiagnostics(t *testing.T) {
	ts := newTestServer(t, &stubEngine{err: &predict.Error{
		Kind:        predict.KindEngineFailure,
		Message:     "prediction engine failed",
		Diagnostics: "model file missing",
	}})

	resp := postPredict(t, ts, `{
		"homeTeam": "Arsenal", "awayTeam": "Chelsea",
		"homeSeasonCode": "202324", "awaySeasonCode": "202324"
	}`)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	kind, message := decodeError(t, resp)
	assert.Equal(t, "engine_failure", kind)
	assert.NotContains(t, message, "model file missing")
}

func TestPredictEndpointTimeoutStatus(t *testing.T) {
	ts := newTestServer(t, &stubEngine{err: &predict.Error{
		Kind:    predict.KindTimeout,
		Message: "prediction engine exceeded its deadline",
	}})

	resp := postPredict(t, ts, `{
		"homeTeam": "Arsenal", "awayTeam": "Chelsea",
		"homeSeasonCode": "202324", "awaySeasonCode": "202324"
	}`)
	require.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)

	kind, _ := decodeError(t, resp)
	assert.Equal(t, "timeout", kind)
}

func TestListSeasonsEndpoint(t *testing.T) {
	ts := newTestServer(t, &stubEngine{output: []byte(stubOutput)})

	resp, err := http.Get(ts.URL + "/api/predictions/seasons")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var seasons []store.Season
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&seasons))
	require.Len(t, seasons, 1)
	assert.Equal(t, "202324", seasons[0].Code)
}

func TestSeasonTeamsEndpoint(t *testing.T) {
	ts := newTestServer(t, &stubEngine{output: []byte(stubOutput)})

	resp, err := http.Get(ts.URL + "/api/predictions/seasons/1/teams")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var teams []store.Team
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&teams))
	require.Len(t, teams, 2)
}

func TestTeamSeasonsEndpointFuzzyName(t *testing.T) {
	ts := newTestServer(t, &stubEngine{output: []byte(stubOutput)})

	resp, err := http.Get(ts.URL + "/api/teams/arse/seasons")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var seasons []store.Season
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&seasons))
	require.Len(t, seasons, 1)
}

func TestTeamSeasonsEndpointUnknownTeamIsEmptyList(t *testing.T) {
	ts := newTestServer(t, &stubEngine{output: []byte(stubOutput)})

	resp, err := http.Get(ts.URL + "/api/teams/Zzzqq/seasons")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var seasons []any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&seasons))
	assert.Empty(t, seasons)
}

func TestTeamMatchesEndpoint(t *testing.T) {
	ts := newTestServer(t, &stubEngine{output: []byte(stubOutput)})

	resp, err := http.Get(ts.URL + "/api/teams/Arsenal/seasons/1/matches")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var matches []predict.MatchRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&matches))
	require.Len(t, matches, 1)
	assert.Equal(t, "H", matches[0].Result)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, &stubEngine{output: []byte(stubOutput)})

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
