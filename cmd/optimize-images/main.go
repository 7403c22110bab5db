package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardanlabs/conf/v3"
	"github.com/joho/godotenv"
	"github.com/phbpx/landing/imageopt"
	"github.com/phbpx/landing/pkg/logger"
	"go.uber.org/zap"
)

func main() {

	// Structured logs and failure lines go to stderr; stdout carries the report.
	log, err := logger.New("optimize-images", "stderr")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		if !errors.Is(err, imageopt.ErrSourceDirMissing) {
			fmt.Fprintln(os.Stderr, "❌ Erro fatal:", err)
		}
		log.Errorw("optimize", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	godotenv.Load()

	cfg := struct {
		Dir string `conf:"default:./assets/img"`
	}{}

	help, err := conf.Parse("OPTIMIZE", &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// Convert

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("startup", "status", "converting images", "dir", cfg.Dir)

	batch := imageopt.NewBatch(cfg.Dir, imageopt.WebPEncoder{}, os.Stdout, os.Stderr, log)
	if _, err := batch.Run(ctx); err != nil {
		return err
	}

	return nil
}
