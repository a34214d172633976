package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/contribution-backend-go/internal/config"
	appHTTP "github.com/cmlabs-hris/contribution-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/cache"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/contribution-backend-go/internal/repository/postgresql"
	allocationService "github.com/cmlabs-hris/contribution-backend-go/internal/service/allocation"
	serviceAuth "github.com/cmlabs-hris/contribution-backend-go/internal/service/auth"
	dashboardService "github.com/cmlabs-hris/contribution-backend-go/internal/service/dashboard"
	"github.com/cmlabs-hris/contribution-backend-go/internal/service/file"
	importService "github.com/cmlabs-hris/contribution-backend-go/internal/service/importer"
	productService "github.com/cmlabs-hris/contribution-backend-go/internal/service/product"
	reportService "github.com/cmlabs-hris/contribution-backend-go/internal/service/report"
	"github.com/shopspring/decimal"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := parseLevel(cfg.App.LogLevel)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	// Hours and percentages are JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	rollups, closeCache := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
	defer closeCache()

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if err != nil {
		return fmt.Errorf("initialize local storage: %w", err)
	}

	organizationRepo := postgresql.NewOrganizationRepository(db)
	allocationRepo := postgresql.NewAllocationRepository(db)
	contributionRepo := postgresql.NewContributionRepository(db)
	featureRepo := postgresql.NewFeatureRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessTTL(), cfg.JWT.RefreshTTL())
	fileService := file.NewFileService(fileStorage)

	authService := serviceAuth.NewAuthService(organizationRepo, JWTService)
	dashboardSvc := dashboardService.NewDashboardService(contributionRepo, organizationRepo, rollups, cfg.Dashboard.TopN)
	allocationSvc := allocationService.NewAllocationService(allocationRepo, organizationRepo, contributionRepo, fileService, rollups)
	importSvc := importService.NewImportService(organizationRepo, allocationSvc, featureRepo, contributionRepo, rollups)
	reportSvc := reportService.NewReportService(allocationRepo, contributionRepo, fileService)
	productSvc := productService.NewProductService(featureRepo)

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			Env:            cfg.App.Env,
			AllowedOrigins: cfg.App.AllowedOrigins,
			FilesDir:       fileStorage.BasePath(),
			LogLevel:       level,
		},
		JWTService,
		appHTTP.NewAuthHandler(authService),
		appHTTP.NewDashboardHandler(dashboardSvc),
		appHTTP.NewAllocationHandler(allocationSvc),
		appHTTP.NewAdminHandler(importSvc, reportSvc),
		appHTTP.NewEntityHandler(productSvc),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	slog.Info("Shutting down")
	return server.Shutdown(shutdownCtx)
}
