package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/cchavez09/Premier-League-Analytics-Platform/internal/config"
	"github.com/cchavez09/Premier-League-Analytics-Platform/internal/logger"
	"github.com/cchavez09/Premier-League-Analytics-Platform/pkg/livedata"
	"github.com/cchavez09/Premier-League-Analytics-Platform/pkg/predict"
	"github.com/cchavez09/Premier-League-Analytics-Platform/pkg/store"
)

// Server exposes the dashboard API over HTTP
type Server struct {
	router         *mux.Router
	store          *store.Store
	predictor      *predict.Predictor
	live           *livedata.Client
	requestTimeout time.Duration
}

// NewServer wires all routes. The live client may be nil, in which case the
// live routes report unavailability.
func NewServer(cfg *config.Config, st *store.Store, predictor *predict.Predictor, live *livedata.Client) *Server {
	s := &Server{
		router:         mux.NewRouter(),
		store:          st,
		predictor:      predictor,
		live:           live,
		requestTimeout: cfg.RequestTimeout,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)

	apiRouter := s.router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/predictions/predict", s.handlePredict).Methods(http.MethodPost)
	apiRouter.HandleFunc("/predictions/seasons", s.handleListSeasons).Methods(http.MethodGet)
	apiRouter.HandleFunc("/predictions/seasons/{seasonID}/teams", s.handleSeasonTeams).Methods(http.MethodGet)
	apiRouter.HandleFunc("/teams/{team}/seasons", s.handleTeamSeasons).Methods(http.MethodGet)
	apiRouter.HandleFunc("/teams/{team}/seasons/{seasonID}/matches", s.handleTeamMatches).Methods(http.MethodGet)
	apiRouter.HandleFunc("/live", s.handleLiveMatches).Methods(http.MethodGet)
	apiRouter.HandleFunc("/live/standings", s.handleLiveStandings).Methods(http.MethodGet)
}

// Handler returns the root HTTP handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server and blocks until ctx is cancelled,
// then drains in-flight requests
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.requestTimeout + 5*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Highlight("Futstat backend listening on", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Inform("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}
