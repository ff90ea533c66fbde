package main

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"daybook/internal/app"
	"daybook/internal/config"
	"daybook/internal/media"
	"daybook/internal/search"
	"daybook/internal/store"
	"daybook/internal/viewcache"
	"daybook/migrations"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	migrationFiles := fs.FS(migrations.Files)
	if cfg.MigrationsDir != "" {
		migrationFiles = os.DirFS(cfg.MigrationsDir)
	}
	if err := store.ApplyMigrations(ctx, db, migrationFiles); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)
	service := app.New(cfg, dataStore)

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, pgfts)
	service.WithSearch(searchService)

	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for view caching")
		views, err := viewcache.NewRedisCache(cfg.RedisURL, cfg.ViewTTL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer views.Close()
		service.WithViewCache(views)
	}

	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		mediaService, err := media.New(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MediaBaseURL, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("media storage connection failed: %v", err)
		}
		service.WithMedia(mediaService)
	}

	service.Bootstrap(ctx, searchService)

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Daybook API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
