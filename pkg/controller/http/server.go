package http

import (
	"net/http"
	"time"

	"github.com/BlueRidgeLabs/chatpro/pkg/utils/logging"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/safe"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	router     *chi.Mux
	webhook    WebhookUseCase
	admin      AdminUseCase
	adminToken string
}

type Options func(*Server)

// WithWebhook mounts the RapidPro flow webhooks under /hooks/rapidpro
func WithWebhook(uc WebhookUseCase) Options {
	return func(s *Server) {
		s.webhook = uc
	}
}

// WithAdmin mounts the admin API under /api. The API stays disabled when
// token is empty.
func WithAdmin(uc AdminUseCase, token string) Options {
	return func(s *Server) {
		s.admin = uc
		s.adminToken = token
	}
}

func New(opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	if s.webhook != nil {
		r.Route("/hooks/rapidpro/{orgID}", func(r chi.Router) {
			r.Use(webhookAuth(s.webhook))
			r.Post("/contact/new", contactChangedHandler(s.webhook))
			r.Post("/contact/del", contactDeletedHandler(s.webhook))
		})
	}

	if s.admin != nil && s.adminToken != "" {
		r.Route("/api/orgs/{orgID}", func(r chi.Router) {
			r.Use(adminAuth(s.adminToken))
			r.Post("/sync", submitSyncHandler(s.admin))
			r.Get("/sync", syncStatusHandler(s.admin))
			r.Get("/rooms", listRoomsHandler(s.admin))
			r.Put("/rooms", updateRoomsHandler(s.admin))
			r.Get("/rooms/{groupID}/contacts", roomParticipantsHandler(s.admin))
			r.Post("/contacts", createContactHandler(s.admin))
			r.Get("/contacts/{contactID}", getContactHandler(s.admin))
			r.Patch("/contacts/{contactID}", updateContactHandler(s.admin))
			r.Delete("/contacts/{contactID}", releaseContactHandler(s.admin))
		})
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	safe.WriteJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
