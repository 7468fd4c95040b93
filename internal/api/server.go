package api

import (
	"context"
	"net/http"
	"time"

	"github.com/glamlens/stylist/internal/middleware"
	"github.com/glamlens/stylist/internal/models"
	"github.com/glamlens/stylist/internal/services/styling"
	"github.com/glamlens/stylist/internal/validation"
	"github.com/go-chi/chi/v5"
)

const (
	historyPageSize = 12
	savedPageSize   = 10
)

// Stylist is the orchestrator surface the handlers call.
type Stylist interface {
	AnalyzeOutfit(ctx context.Context, userID string, upload []byte) (*styling.AnalyzeResult, error)
	ListHistory(ctx context.Context, userID string, p validation.Pagination) (*styling.SessionPage, error)
	GetSession(ctx context.Context, userID, sessionID string) (*models.StyleSession, error)
	GenerateRecommendations(ctx context.Context, userID, sessionID string, opts styling.GenerateOptions) (*styling.GenerateResult, error)
	RegenerateCategory(ctx context.Context, userID, sessionID string, category models.Category, opts styling.RegenerateOptions) (*styling.RegenerateResult, error)
	ListSaved(ctx context.Context, userID string, category models.Category, p validation.Pagination) (*styling.SessionPage, error)
	SetSaved(ctx context.Context, userID, sessionID string, saved bool) error
	SubmitFeedback(ctx context.Context, userID, sessionID string, feedback models.Feedback, liked *bool) (*models.UserInteraction, error)
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.User, error)
	Usage(ctx context.Context, userID string) (*styling.UsageSummary, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Server struct {
	stylist      Stylist
	maxBodyBytes int64
	health       map[string]Pinger
}

// NewServer creates the API handlers. maxUploadBytes bounds the decoded
// image; request bodies may be a third larger to allow for base64.
func NewServer(stylist Stylist, maxUploadBytes int64, health map[string]Pinger) *Server {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &Server{
		stylist:      stylist,
		maxBodyBytes: maxUploadBytes*4/3 + 4096,
		health:       health,
	}
}

// Routes mounts the /api surface. auth guards every route except health.
func (s *Server) Routes(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Get("/health", s.HandleHealth)
	r.Get("/api/health", s.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth)

		r.Route("/analysis", func(r chi.Router) {
			r.Post("/outfit", s.HandleAnalyzeOutfit)
			r.Get("/history", s.HandleHistory)
			r.Get("/{sessionId}", s.HandleGetSession)
		})

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/saved", s.HandleSaved)
			r.Post("/{sessionId}/generate", s.HandleGenerate)
			r.Post("/{sessionId}/regenerate/{category}", s.HandleRegenerate)
			r.Post("/{sessionId}/save", s.HandleSave)
			r.Post("/{sessionId}/feedback", s.HandleFeedback)
		})

		r.Route("/user", func(r chi.Router) {
			r.Get("/profile", s.HandleGetProfile)
			r.Put("/profile", s.HandleUpdateProfile)
			r.Get("/usage", s.HandleUsage)
		})
	})
}

// HandleHealth pings every dependency. A failing dependency turns the
// response into a 503 but the body still lists each one.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	services := make(map[string]string, len(s.health))
	healthy := true
	for name, p := range s.health {
		if err := p.Ping(ctx); err != nil {
			services[name] = "disconnected"
			healthy = false
			continue
		}
		services[name] = "connected"
	}

	status := http.StatusOK
	message := "OK"
	if !healthy {
		status = http.StatusServiceUnavailable
		message = "Degraded"
	}
	writeJSON(w, status, Envelope{
		Success: healthy,
		Data:    map[string]any{"services": services},
		Message: message,
	})
}

func (s *Server) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok || userID == "" {
		writeJSON(w, http.StatusUnauthorized, Envelope{Success: false, Message: "Unauthorized"})
		return "", false
	}
	return userID, true
}
