package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"time"

	"tomato_backend/internal/cache"
	"tomato_backend/internal/config"
	"tomato_backend/internal/database"
	"tomato_backend/internal/handler"
	redisclient "tomato_backend/internal/redis"
	"tomato_backend/internal/repository"
	"tomato_backend/internal/service"
)

// Run wires the application and serves HTTP until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	// 1. Migrate on a short-lived connection, then connect the pool
	if cfg.AutoMigrate {
		if err := database.MigrateUp(cfg); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// 2. Post cache (optional)
	postCache := cache.NewNoopPostCache()
	if cfg.RedisURL != "" {
		client, err := redisclient.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()
		postCache = cache.NewPostCache(client, cfg.PostCacheTTL)
	} else {
		log.Println("REDIS_URL not set, post cache disabled")
	}

	// 3. Identity provider
	verifier, err := service.NewGoogleIdentityVerifier(ctx, cfg.GoogleClientID, cfg.IdentityTimeout)
	if err != nil {
		return fmt.Errorf("failed to create identity verifier: %w", err)
	}

	// 4. Repositories, services, handlers
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)

	codec := service.NewTokenCodec(cfg.JWTSecret, cfg.SessionTokenMaxAge)
	userService := service.NewUserService(userRepo)
	authService := service.NewAuthService(verifier, userService, codec)
	postService := service.NewPostService(postRepo, postCache)

	router := NewRouter(RouterConfig{
		AuthHandler: handler.NewAuthHandler(authService),
		UserHandler: handler.NewUserHandler(userService),
		PostHandler: handler.NewPostHandler(postService),
		Tokens:      codec,
	})

	// 5. Serve
	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Printf("Shutting down server (grace period %s)", cfg.ShutdownGracePeriod)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
