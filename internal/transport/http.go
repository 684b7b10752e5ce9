package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/net/websocket"

	"github.com/rpggio/gmboard/internal/broadcast"
	"github.com/rpggio/gmboard/internal/domain/activity"
	"github.com/rpggio/gmboard/internal/domain/campaign"
	"github.com/rpggio/gmboard/internal/domain/mutation"
	"github.com/rpggio/gmboard/internal/domain/system"
	"github.com/rpggio/gmboard/internal/overlay"
)

// Services are the domain services behind the HTTP API.
type Services struct {
	Campaigns *campaign.Service
	Mutations *mutation.Service
	Systems   *system.Catalog
	Overlay   *overlay.Resolver
	Activity  *activity.Service
	Hub       *broadcast.Hub
}

// Server wires HTTP handlers.
type Server struct {
	svc    Services
	logger *slog.Logger
}

// NewServer creates the HTTP router: REST API, websocket push channel and
// health check.
func NewServer(svc Services, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	srv := &Server{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(srv.requestLogger)

	r.Get("/health", srv.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/systems", srv.handleListSystems)

		r.Get("/campaigns", srv.handleListCampaigns)
		r.Post("/campaigns", srv.handleCreateCampaign)
		r.Get("/campaigns/{campaignID}", srv.handleGetCampaign)
		r.Put("/campaigns/{campaignID}", srv.handleUpdateCampaign)
		r.Get("/campaigns/{campaignID}/activity", srv.handleListActivity)
		r.Get("/campaigns/{campaignID}/characters", srv.handleListCharacters)
		r.Post("/campaigns/{campaignID}/characters", srv.handleAddCharacter)
		r.Get("/campaigns/{campaignID}/characters/{characterID}", srv.handleGetCharacter)
		r.Put("/campaigns/{campaignID}/characters/{characterID}", srv.handleUpdateCharacter)
		r.Post("/campaigns/{campaignID}/characters/{characterID}/mutations", srv.handleApplyMutation)

		r.Get("/overlay/{campaignID}", srv.handleOverlay)
		r.Get("/overlay/{campaignID}/{characterID}", srv.handleOverlay)
		r.Get("/overlay/{campaignID}/{characterID}/{variation}", srv.handleOverlay)
	})

	ws := websocket.Handler(srv.handleWSConn)
	r.Get("/ws", ws.ServeHTTP)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := mapError(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, code, errorMessage(status, err))
}
