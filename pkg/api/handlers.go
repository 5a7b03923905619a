package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/cchavez09/Premier-League-Analytics-Platform/internal/logger"
	"github.com/cchavez09/Premier-League-Analytics-Platform/pkg/predict"
)

// errorBody is the JSON error envelope. Kind is machine-readable; Message
// is a human-readable summary with no raw engine diagnostics in it.
type errorBody struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Futstat backend is running\n"))
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	var req predict.PredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, predict.WrapError(predict.KindInvalidRequest, "request body is not valid JSON", err))
		return
	}

	result, err := s.predictor.Predict(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Caller disconnected; nothing useful to write
			logger.Debug("Prediction abandoned by caller")
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := s.store.ListSeasons(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seasons)
}

func (s *Server) handleSeasonTeams(w http.ResponseWriter, r *http.Request) {
	seasonID, err := strconv.ParseInt(mux.Vars(r)["seasonID"], 10, 64)
	if err != nil {
		writeError(w, predict.NewError(predict.KindInvalidRequest, "seasonID must be an integer"))
		return
	}
	teams, err := s.store.ListSeasonTeams(r.Context(), seasonID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

// handleTeamSeasons lists the seasons a fuzzily matched team appears in.
// An unknown team yields an empty list, mirroring the dashboard behaviour
// of showing nothing rather than an error page.
func (s *Server) handleTeamSeasons(w http.ResponseWriter, r *http.Request) {
	teamID, err := s.store.FindTeamIDByName(r.Context(), mux.Vars(r)["team"])
	if err != nil {
		if errors.Is(err, predict.ErrNotFound) {
			writeJSON(w, http.StatusOK, []struct{}{})
			return
		}
		writeError(w, err)
		return
	}

	seasons, err := s.store.ListTeamSeasons(r.Context(), teamID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seasons)
}

func (s *Server) handleTeamMatches(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	seasonID, err := strconv.ParseInt(vars["seasonID"], 10, 64)
	if err != nil {
		writeError(w, predict.NewError(predict.KindInvalidRequest, "seasonID must be an integer"))
		return
	}

	teamID, err := s.store.FindTeamIDByName(r.Context(), vars["team"])
	if err != nil {
		if errors.Is(err, predict.ErrNotFound) {
			writeJSON(w, http.StatusOK, []struct{}{})
			return
		}
		writeError(w, err)
		return
	}

	matches, err := s.store.ListMatches(r.Context(), teamID, seasonID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) handleLiveMatches(w http.ResponseWriter, r *http.Request) {
	if s.live == nil {
		writeUnavailable(w, "live data is not configured")
		return
	}
	matches, err := s.live.Matches(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) handleLiveStandings(w http.ResponseWriter, r *http.Request) {
	if s.live == nil {
		writeUnavailable(w, "live data is not configured")
		return
	}
	standings, err := s.live.Standings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, standings)
}

func writeUnavailable(w http.ResponseWriter, message string) {
	var body errorBody
	body.Error.Kind = "unavailable"
	body.Error.Message = message
	writeJSON(w, http.StatusServiceUnavailable, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", err)
	}
}

// writeError maps a failure to an HTTP status by kind. Diagnostics stay in
// the server log; the caller only ever sees the bounded message.
func writeError(w http.ResponseWriter, err error) {
	kind := predict.KindOf(err)

	var status int
	switch kind {
	case predict.KindInvalidRequest:
		status = http.StatusBadRequest
	case predict.KindInputNotFound:
		status = http.StatusNotFound
	case predict.KindTimeout:
		status = http.StatusGatewayTimeout
	case predict.KindEngineFailure, predict.KindMalformedOutput, predict.KindValidation:
		status = http.StatusBadGateway
	default:
		kind = "internal"
		status = http.StatusInternalServerError
	}

	var body errorBody
	body.Error.Kind = string(kind)

	var pe *predict.Error
	if errors.As(err, &pe) {
		body.Error.Message = pe.Message
		if pe.Diagnostics != "" {
			logger.Error("Request failed", string(pe.Kind), pe.Message, pe.Diagnostics)
		} else {
			logger.Error("Request failed", string(pe.Kind), pe.Message)
		}
	} else {
		body.Error.Message = "internal server error"
		logger.Error("Request failed", err)
	}

	writeJSON(w, status, body)
}
