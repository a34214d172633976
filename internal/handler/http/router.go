package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/contribution-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// RouterConfig carries the settings the router needs from the app config.
type RouterConfig struct {
	Env            string
	AllowedOrigins []string
	FilesDir       string
	LogLevel       slog.Level
}

func NewRouter(
	cfg RouterConfig,
	JWTService jwt.Service,
	authHandler AuthHandler,
	dashboardHandler DashboardHandler,
	allocationHandler AllocationHandler,
	adminHandler AdminHandler,
	entityHandler EntityHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "contribution-dashboard"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	if cfg.FilesDir != "" {
		r.Handle("/files/*", http.StripPrefix("/files/", http.FileServer(http.Dir(cfg.FilesDir))))
	}

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth/token", func(r chi.Router) {
			r.Post("/", authHandler.Login)
			r.Post("/refresh", authHandler.RefreshToken)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Get("/me", authHandler.Me)

			r.Get("/products", entityHandler.ListProducts)
			r.Get("/features", entityHandler.ListFeatures)

			// Dashboards, scoped further by the service
			r.With(middleware.RequirePermission(user.PermissionDashboardOrg)).
				Get("/dashboards/org", dashboardHandler.GetOrgDashboard)
			r.With(middleware.RequirePermission(user.PermissionDashboardDepartment)).
				Get("/dashboards/department/{id}", dashboardHandler.GetDepartmentDashboard)
			r.With(middleware.RequirePermission(user.PermissionDashboardPod)).
				Get("/pods/{id}/contributions", dashboardHandler.GetPodContributions)
			r.Get("/employees/{id}/contributions", dashboardHandler.GetEmployeeContributions)

			r.Route("/pod-leads/{id}", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionAllocationView))
				r.Get("/allocations", allocationHandler.GetPodAllocations)
				r.With(middleware.RequirePermission(user.PermissionAllocationSubmit)).
					Post("/allocations/submit", allocationHandler.SubmitAllocations)
				r.Get("/allocation-sheet", allocationHandler.GetAllocationSheet)
				r.Get("/allocation-sheet/download", allocationHandler.DownloadAllocationSheet)
			})

			r.Route("/admin", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionAllocationProcess)).
					Post("/allocations/{id}/process", allocationHandler.ProcessAllocations)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Post("/employees/import", adminHandler.ImportEmployees)
					r.Post("/features/upload", adminHandler.UploadFeatures)
					r.Post("/sheets/generate-all", allocationHandler.GenerateAllSheets)
					r.Post("/final-master-list/generate", adminHandler.GenerateMasterList)
					r.Get("/final-master-list", adminHandler.GetMasterList)
				})
			})

			r.Route("/automation", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/upload-initial-xlsx", adminHandler.UploadInitial)
			})
		})
	})
	return r
}
