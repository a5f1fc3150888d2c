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

	"github.com/carlmjohnson/versioninfo"
	"github.com/jazzband/jazzhands/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:    "jazzhands",
		Usage:   "invite GitHub users with a verified email into an organization team",
		Version: versioninfo.Short(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Value:   ".env",
				Usage:   "dotenv file loaded before reading the environment",
				EnvVars: []string{"JAZZHANDS_ENV_FILE"},
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address, overrides LISTEN_ADDR",
			},
		},
		Action: run,
	}

	app.RunAndExitOnError()
}

func run(cmd *cli.Context) error {
	cfg, err := config.Load(cmd.String("env-file"))
	if err != nil {
		return err
	}

	if addr := cmd.String("addr"); addr != "" {
		cfg.ListenAddr = addr
	}

	logger := newLogger(cfg.Debug)
	slog.SetDefault(logger)

	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	defer rdb.Close()

	if err := rdb.Ping(cmd.Context).Err(); err != nil {
		return fmt.Errorf("could not reach session store: %w", err)
	}

	s, err := NewServer(ServerArgs{
		Config: cfg,
		Redis:  rdb,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	httpd := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", "addr", cfg.ListenAddr, "version", versioninfo.Short())
		errCh <- httpd.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return httpd.Shutdown(shutdownCtx)
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
