// Copyright 2026 The ConveyAI Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/conveyai/conveyai/internal/audit"
	"github.com/conveyai/conveyai/internal/config"
	"github.com/conveyai/conveyai/internal/contract"
	"github.com/conveyai/conveyai/internal/hierarchy"
	"github.com/conveyai/conveyai/internal/identity"
	"github.com/conveyai/conveyai/internal/matter"
	"github.com/conveyai/conveyai/internal/observability/logger"
	"github.com/conveyai/conveyai/internal/observability/metrics"
	"github.com/conveyai/conveyai/internal/observability/tracing"
	"github.com/conveyai/conveyai/internal/registry"
	"github.com/conveyai/conveyai/internal/storage"
	"github.com/conveyai/conveyai/internal/store/postgres"
	"github.com/conveyai/conveyai/internal/tenant"
	transportHTTP "github.com/conveyai/conveyai/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting conveyai matter management backend")

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg); err != nil {
			fmt.Printf("Migration failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx := context.Background()

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	// Initialize meter
	_, err = metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	}

	// Initialize database
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	// Initialize blob storage
	blobs, err := storage.NewFileStore(cfg.Storage.RootDir)
	if err != nil {
		slog.Error("failed to initialize file storage", logger.Error(err))
		os.Exit(1)
	}

	// Initialize repositories
	tenantRepo := postgres.NewTenantRepository(db)
	principalRepo := postgres.NewPrincipalRepository(db)
	matterRepo := postgres.NewMatterRepository(db)
	folderRepo := postgres.NewFolderRepository(db)
	itemRepo := postgres.NewItemRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	// Initialize helpers
	trail := audit.NewTrail(auditRepo)
	passwordHasher := identity.NewPasswordHasher(
		cfg.Auth.Argon2Memory,
		cfg.Auth.Argon2Iterations,
		cfg.Auth.Argon2Parallelism,
		cfg.Auth.Argon2SaltLength,
		cfg.Auth.Argon2KeyLength,
	)
	tokens := identity.NewTokenIssuer(cfg.Auth.TokenSecret, cfg.Auth.TokenLifetime)

	// Registry client (process-scoped credentials, shared by all tenants)
	registryClient := registry.New(registry.Config{
		AuthURL:      cfg.Registry.AuthURL,
		TokenURL:     cfg.Registry.TokenURL,
		OrderURL:     cfg.Registry.OrderURL,
		ClientID:     cfg.Registry.ClientID,
		ClientSecret: cfg.Registry.ClientSecret,
		Username:     cfg.Registry.Username,
		Timeout:      cfg.Registry.Timeout,
		TokenTTL:     cfg.Registry.TokenTTL,
	})

	// Initialize services
	tenantService := tenant.NewService(tenantRepo)
	identityService := identity.NewService(principalRepo, tenantRepo, passwordHasher)
	matterService := matter.NewService(matterRepo, trail, db)
	storeService := hierarchy.NewService(folderRepo, itemRepo, blobs, trail, db)
	contractService := contract.NewService(matterRepo, storeService, trail, registryClient, db)

	// Rate limiter
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Initialize HTTP handler
	handler := transportHTTP.NewHandler(
		tenantService,
		identityService,
		tokens,
		matterService,
		storeService,
		contractService,
		trail,
	)

	// Create router
	router := transportHTTP.NewRouter(handler, rateLimiter)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
}

func runMigrate(cfg *config.Config) error {
	ctx := context.Background()
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("Applying initial schema...")
	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		return err
	}
	fmt.Println("Migration successful.")
	return nil
}
