package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"feedback-insights/internal/app"
	"feedback-insights/internal/config"
	"feedback-insights/internal/mcptools"
)

const version = "1.0.0"

func main() {
	// stdout carries the MCP protocol, so nothing else may print there.
	log.SetOutput(os.Stderr)
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := app.NewLogger(cfg.LogLevel, false)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("feedback could not be loaded", zap.Error(err))
	}

	server := mcptools.NewServer(mcptools.New(a.Service, logger), version)
	logger.Info("feedback MCP server starting on stdio",
		zap.Int("records", a.Table.Len()),
		zap.Strings("tools", []string{"list_months", "list_regions", "generate_insights", "ask_followup"}),
	)
	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil && ctx.Err() == nil {
		logger.Fatal("MCP server failed", zap.Error(err))
	}
}
