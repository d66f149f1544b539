package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/todmy/project-grader/internal/auth"
	"github.com/todmy/project-grader/internal/grader"
	"github.com/todmy/project-grader/internal/history"
	"github.com/todmy/project-grader/internal/notify"
	"github.com/todmy/project-grader/internal/stats"
	"github.com/todmy/project-grader/internal/survey"
)

type Server struct {
	router *chi.Mux

	store       history.Store
	stats       *stats.Service
	grader      *grader.Client
	notifier    *notify.Notifier
	surveys     *survey.Store
	authService auth.Service
	users       auth.UserRepository
}

func NewServer(
	store history.Store,
	statsService *stats.Service,
	graderClient *grader.Client,
	notifier *notify.Notifier,
	surveys *survey.Store,
	authService auth.Service,
	users auth.UserRepository,
) *Server {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{
		router:      r,
		store:       store,
		stats:       statsService,
		grader:      graderClient,
		notifier:    notifier,
		surveys:     surveys,
		authService: authService,
		users:       users,
	}
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.handleHealth)

	authHandlers := auth.NewHandlers(s.authService)

	// API v1
	s.router.Route("/api/v1", func(r chi.Router) {
		// Auth routes (public)
		r.Post("/auth/register", authHandlers.Register)
		r.Post("/auth/login", authHandlers.Login)

		// LMS webhooks authenticate with their own shared-secret headers
		r.Route("/lms", func(r chi.Router) {
			r.Post("/google-classroom", s.handleGoogleClassroomWebhook)
			r.Post("/blackboard", s.handleBlackboardWebhook)
			r.Post("/canvas", s.handleCanvasWebhook)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.authService))

			r.Get("/auth/me", authHandlers.Me)

			// Analyses
			r.Route("/analyses", func(r chi.Router) {
				r.Post("/", s.handleCreateAnalysis)
				r.Get("/", s.handleListAnalyses)
				r.Delete("/", s.handleDeleteAllAnalyses)
				r.Get("/{analysisID}", s.handleGetAnalysis)
				r.Delete("/{analysisID}", s.handleDeleteAnalysis)
				r.Get("/{analysisID}/report", s.handleAnalysisReport)
			})

			r.Get("/statistics", s.handleUserStatistics)
			r.Get("/reports/summary", s.handleSummaryReport)

			// Survey
			r.Post("/survey", s.handleSubmitSurvey)
			r.Get("/survey/responded", s.handleSurveyResponded)

			// Admin and teacher views
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleAdmin, auth.RoleTeacher))

				r.Get("/admin/statistics", s.handleSystemStatistics)
				r.Get("/admin/survey/statistics", s.handleSurveyStatistics)
				r.Get("/admin/survey/export", s.handleSurveyExport)
			})

			// User management is admin only
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleAdmin))

				r.Route("/admin/users", func(r chi.Router) {
					r.Get("/", s.handleListUsers)
					r.Post("/", s.handleCreateUser)
					r.Put("/{userID}", s.handleUpdateUser)
					r.Delete("/{userID}", s.handleDeleteUser)
				})
			})
		})
	})
}

func (s *Server) Run(addr string) error {
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helper to send JSON responses
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
