package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/cambio/service/internal/config"
	"github.com/jason-s-yu/cambio/service/internal/game"
	"github.com/jason-s-yu/cambio/service/internal/leaderboard"
	"github.com/jason-s-yu/cambio/service/internal/server"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	log.SetLevel(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	board, err := openLeaderboard(ctx, cfg)
	if err != nil {
		return err
	}
	defer board.Close()
	log.WithField("backend", cfg.Leaderboard).Info("leaderboard ready")

	reg := game.NewRegistry(game.Options{
		Leaderboard:   board,
		Build:         cfg.Build,
		SubmitTimeout: cfg.SubmitTimeout,
		TickInterval:  cfg.TickInterval,
		Logger:        log,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(reg, board, log).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("server listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-t.C:
				reg.PruneIdle(now, cfg.SessionTTL)
			}
		}
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		reg.CloseAll()
		return err
	})
	return g.Wait()
}

func openLeaderboard(ctx context.Context, cfg config.Config) (leaderboard.Board, error) {
	switch cfg.Leaderboard {
	case config.BackendRedis:
		r := leaderboard.NewRedis(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := r.Ping(pingCtx); err != nil {
			r.Close()
			return nil, err
		}
		return r, nil
	case config.BackendPostgres:
		connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return leaderboard.NewPostgres(connCtx, cfg.DatabaseURL)
	}
	return leaderboard.NewMemory(), nil
}
