package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/komiwalnut/haroval/internal/auth"
	"github.com/komiwalnut/haroval/internal/cache"
	"github.com/komiwalnut/haroval/internal/config"
	"github.com/komiwalnut/haroval/internal/decks"
	"github.com/komiwalnut/haroval/internal/googleauth"
	"github.com/komiwalnut/haroval/internal/httpapi"
	"github.com/komiwalnut/haroval/internal/users"
	"github.com/komiwalnut/haroval/pkg/logger"
	"github.com/komiwalnut/haroval/pkg/utils"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tokens, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		log.Error("token service init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	responseCache := cache.NewRedis(rdb)
	userRepo := users.NewPostgresRepo(db)
	deckRepo := decks.NewPostgresRepo(db)

	authService := auth.NewService(userRepo, tokens, responseCache)
	deckService := decks.NewService(deckRepo, responseCache)

	cookies := auth.CookieWriter{
		Secure:        cfg.IsProduction(),
		AccessMaxAge:  tokens.AccessTTL(),
		RefreshMaxAge: tokens.RefreshTTL(),
	}
	google := &httpapi.GoogleHandlers{
		Client:  googleauth.NewClient(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.GoogleRedirectURL()),
		Auth:    authService,
		Cookies: cookies,
		BaseURL: cfg.App.BaseURL,
	}
	handlers := httpapi.Handlers{
		Auth:    authService,
		Decks:   deckService,
		Google:  google,
		Cookies: cookies,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, handlers, auth.RequireSession(tokens), db)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
