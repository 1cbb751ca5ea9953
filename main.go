package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossplay/apps/go-client/internal/config"
	"github.com/robalobadob/crossplay/apps/go-client/internal/httpserver"
	"github.com/robalobadob/crossplay/apps/go-client/internal/letters"
	"github.com/robalobadob/crossplay/apps/go-client/internal/prefs"
	"github.com/robalobadob/crossplay/apps/go-client/internal/remote"
	"github.com/robalobadob/crossplay/apps/go-client/internal/session"
)

func main() {
	cfg := config.Load()
	logFile := config.SetupLogger(cfg)
	defer logFile.Close()

	if err := letters.Init(cfg.LettersFile); err != nil {
		log.Fatal().Err(err).Msg("failed to load tile letters")
	}

	p, err := prefs.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open preferences db")
	}
	defer p.Close()

	svc := remote.NewCached(
		remote.NewHTTPClient(cfg.GameServiceURL, cfg.GameServiceTimeout),
		cfg.SnapshotCacheSize,
		cfg.SnapshotCacheTTL,
	)
	sessions := session.NewStore(svc, session.Options{SeedCenter: cfg.SeedCenterAnchor})
	defer sessions.Close()

	srv := httpserver.New(sessions, p, httpserver.Options{
		JWTSecret:       cfg.JWTSecret,
		TokenTTL:        time.Duration(cfg.JWTExpiresHours) * time.Hour,
		CookieName:      cfg.CookieName,
		ClientOrigin:    cfg.ClientOrigin,
		Secure:          cfg.Production,
		RefreshInterval: cfg.RefreshInterval,
	})
	hs := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", hs.Addr).Str("gameService", cfg.GameServiceURL).Msg("starting compose client")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown")
	}
}
