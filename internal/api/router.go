package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/azdo-tools/pipeline-migration-workbench/internal/migration"
	"github.com/azdo-tools/pipeline-migration-workbench/internal/models"
)

// Server holds shared state for all API handlers.
type Server struct {
	Connections *models.ConnectionStore
	Jobs        *models.JobStore
	Previews    *PreviewStore
	Options     migration.Options
}

// NewServer wires up the stores handlers depend on.
func NewServer(opts migration.Options) *Server {
	return &Server{
		Connections: models.NewConnectionStore(),
		Jobs:        models.NewJobStore(),
		Previews:    NewPreviewStore(),
		Options:     opts,
	}
}

// NewRouter builds the chi router with all API routes.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Connections
		r.Post("/connections", s.CreateConnection)
		r.Get("/connections", s.ListConnections)
		r.Put("/connections/{id}", s.UpdateConnection)
		r.Delete("/connections/{id}", s.DeleteConnection)
		r.Post("/connections/{id}/test", s.TestConnection)

		// Entity browsing
		r.Get("/connections/{id}/entities", s.ListEntityKinds)
		r.Get("/connections/{id}/entities/{kind}", s.ListEntitiesOfKind)

		// Migration
		r.Get("/migrate/options", s.GetMigrationOptions)
		r.Post("/migrate/preview", s.MigrationPreviewHandler)
		r.Get("/migrate/preview/{jobId}", s.GetMigrationPreview)
		r.Post("/migrate/run", s.MigrationRunHandler)

		// Jobs
		r.Get("/jobs", s.ListJobs)
		r.Get("/jobs/{id}", s.GetJob)
		r.Post("/jobs/{id}/cancel", s.CancelJob)
	})

	// WebSocket (outside /api to avoid JSON content-type assumptions)
	r.Get("/ws/jobs/{id}/logs", s.StreamJobLogs)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
