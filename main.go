package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/tansanbot/internal/bot"
	"github.com/example/tansanbot/internal/database"
	"github.com/example/tansanbot/internal/scenarios"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// .env is optional; real deployments set environment variables directly
	_ = godotenv.Load()

	setupLogging()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.Connect(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer database.Close()

	catalog, err := scenarios.Load(database.NewScenarioRepository())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load scenario catalog")
	}
	logrus.WithField("scenarios", catalog.Len()).Info("Scenario catalog loaded")

	b, err := bot.New(catalog)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create bot")
	}

	done := make(chan struct{})

	go func() {
		sig := <-sigChan
		logrus.WithField("signal", sig.String()).Info("Shutting down")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := b.Stop(shutdownCtx); err != nil {
			logrus.WithError(err).Error("Error during shutdown")
		}

		close(done)
	}()

	logrus.Info("Bot started. Press Ctrl+C to stop.")
	go func() {
		if err := b.Start(ctx); err != nil && err != context.Canceled {
			logrus.WithError(err).Error("Bot error")
		}
	}()

	<-done
	logrus.Info("Bot stopped successfully")
}

func setupLogging() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logrus.SetLevel(level)
	}
}
