package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/korjavin/pikttrainer/bot"
	"github.com/korjavin/pikttrainer/config"
	"github.com/korjavin/pikttrainer/database"
	"github.com/korjavin/pikttrainer/questions"
	"go.uber.org/zap"
)

func setupLogger(env string) *zap.Logger {
	var logger *zap.Logger
	if env == config.EnvDevelopment {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	return logger
}

func openStorage(path string) (database.Backend, error) {
	if path == "" {
		return database.NewMemory(), nil
	}
	return database.New(path)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := setupLogger(cfg.Env)
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.LoadTimeout)
	bank, err := questions.Load(ctx, questions.NewSource(cfg.QuestionsSource, cfg.LoadTimeout))
	cancel()
	if err != nil {
		logger.Fatal("failed to load questions", zap.String("source", cfg.QuestionsSource), zap.Error(err))
	}
	logger.Info("loaded questions", zap.Int("count", bank.Len()))

	store, err := openStorage(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("failed to open storage", zap.String("path", cfg.DatabasePath), zap.Error(err))
	}
	defer store.Close()

	if chats, err := store.Namespaces(); err != nil {
		logger.Warn("failed to list saved progress", zap.Error(err))
	} else {
		logger.Info("storage ready", zap.String("path", cfg.DatabasePath), zap.Int("chats_with_progress", len(chats)))
	}

	b, err := bot.New(cfg, store, bank, logger)
	if err != nil {
		logger.Fatal("failed to initialize bot", zap.Error(err))
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Info("shutting down")
		b.Stop()
	}()

	b.Start()
}
