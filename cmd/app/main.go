package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gsr_go/internal/app"
	"gsr_go/internal/domain"
	"gsr_go/internal/infra"
	"gsr_go/internal/server"

	"github.com/joho/godotenv"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 0. Optional .env for API keys (ignored if absent)
	_ = godotenv.Load()

	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Price sources: CoinGecko is the sole BTC source and the primary
	// metals source; GoldAPI is the secondary metals source.
	coingecko := infra.NewCoinGeckoClient(bootstrap.Config)
	goldapi := infra.NewGoldAPIClient(bootstrap.Config)

	// 5. Refresh Orchestrator
	orch := app.NewOrchestrator(coingecko, []domain.MetalsSource{coingecko, goldapi}, bootstrap.States)

	// 6. HTTP/WebSocket shell
	srv := server.New(bootstrap.Config, orch, bootstrap.States)
	orch.OnCycle(srv.Broadcast)

	go orch.Run(ctx)
	slog.InfoContext(ctx, "✅ Refresh loop started",
		slog.Int("interval_minutes", bootstrap.States.State().RefreshMinutes))

	slog.InfoContext(ctx, "✨ GSR Watch fully operational. Press Ctrl+C to exit.",
		slog.String("listen", bootstrap.Config.Server.ListenAddr))

	if err := srv.Start(ctx); err != nil {
		slog.Error("❌ HTTP server failed", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("👋 Shutting down gracefully...")
}
