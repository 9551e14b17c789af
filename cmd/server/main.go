package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmoura/safepilot/internal/api"
	"github.com/tmoura/safepilot/internal/chain"
	"github.com/tmoura/safepilot/internal/config"
	"github.com/tmoura/safepilot/internal/db"
	"github.com/tmoura/safepilot/internal/intent"
	"github.com/tmoura/safepilot/internal/safe"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	database, err := db.New(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to initialize database",
			zap.Error(err),
			zap.String("dbPath", cfg.DBPath))
	}
	defer database.Close()

	opts := []openai.Option{
		openai.WithToken(cfg.OpenAIAPIKey),
		openai.WithModel(cfg.OpenAIModel),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		logger.Fatal("failed to initialize language model client", zap.Error(err))
	}

	// Chain access and the agent key are optional at boot; routes that need
	// them report a configuration error instead.
	var balances intent.BalanceReader
	var chainClient *chain.Client
	if cfg.RPCURL != "" {
		chainClient, err = chain.New(cfg.RPCURL, logger)
		if err != nil {
			logger.Fatal("failed to initialize chain client", zap.Error(err))
		}
		balances = chainClient
	}

	var agentAddress string
	var signer *safe.Signer
	if cfg.AgentPrivateKey != "" {
		signer, err = safe.NewSigner(cfg.AgentPrivateKey, cfg.ChainID)
		if err != nil {
			logger.Fatal("failed to load agent key", zap.Error(err))
		}
		agentAddress = signer.Address().Hex()
	}

	safeClient := safe.NewClient(cfg.SafeServiceURL, logger)
	classifier := intent.NewClassifier(model, balances, logger)

	var proposer api.Proposer
	if chainClient != nil && signer != nil {
		proposer = safe.NewProposer(chainClient, safeClient, signer, logger)
	}

	handler := api.NewHandler(database, classifier, proposer, safeClient, agentAddress, cfg.RPCURL, cfg.HistoryLimit, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.Port),
			zap.String("network", cfg.Network),
			zap.Bool("transfers_enabled", proposer != nil))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
