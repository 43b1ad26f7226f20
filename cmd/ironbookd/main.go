package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ironbook/internal/book"
	"ironbook/internal/broker"
	"ironbook/internal/config"
	"ironbook/internal/session"
	"ironbook/internal/tradelog"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	tradeLog, err := tradelog.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open trade log")
	}
	defer tradeLog.Close()

	manager := book.NewManager(cfg.Symbols...)
	brk := broker.New()

	srv := session.New(cfg.ListenAddr, cfg.ListenPort, cfg.MetricsAddr, manager, tradeLog, brk)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("session server exited with error")
	}
}
