package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"portfolio-dashboard/internal/logger"
	"portfolio-dashboard/pkg/samplegen"
)

func main() {
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	log := logger.New(logger.Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Pretty: true,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := samplegen.Execute(ctx, os.Args[1:], os.Stdout, log); err != nil {
		log.Error().Err(err).Msg("sample-gen failed")
		stop()
		os.Exit(1)
	}
}
