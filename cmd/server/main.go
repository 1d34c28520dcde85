package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cube-arena/internal/api"
	"cube-arena/internal/config"
	"cube-arena/internal/game"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  CUBE ARENA - GO ENGINE")
	log.Println("🎮 ================================")

	appConfig, err := config.Load("")
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	serverCfg := appConfig.Server
	gameCfg := appConfig.Game

	engine := game.NewEngine(game.EngineConfig{
		TickInterval: gameCfg.TickInterval(),
		RespawnDelay: gameCfg.RespawnDelay(),
		MaxPlayers:   gameCfg.MaxPlayers,
	})
	engine.SetHooks(api.EngineHooks())
	log.Printf("🎮 Config: tick %v, respawn %v, %d players max",
		gameCfg.TickInterval(), gameCfg.RespawnDelay(), gameCfg.MaxPlayers)

	journal := game.NewJournal()
	if appConfig.Journal.Enabled {
		if err := journal.Start(appConfig.Journal.Path); err != nil {
			log.Printf("⚠️ Event journal disabled: %v", err)
		} else {
			log.Printf("📝 Event journal: %s", appConfig.Journal.Path)
		}
	}
	engine.AttachJournal(journal)
	api.RegisterJournalMetrics(journal)

	debugServer := api.StartDebugServer(api.ObservabilityConfig{
		Enabled:    !appConfig.Debug.Disabled,
		ListenAddr: appConfig.Debug.Addr,
	})

	server := api.NewServer(engine, api.ServerConfig{
		Hub: api.HubConfig{
			MaxMessagesPerSec: serverCfg.WSMaxMessagesPerSec,
			MaxConnsPerIP:     serverCfg.WSMaxConnsPerIP,
			AllowedOrigins:    serverCfg.AllowedOrigins,
		},
		RateLimit: api.RateLimitConfig{
			RequestsPerSecond: serverCfg.HTTPRequestsPerSec,
			Burst:             int(serverCfg.HTTPRequestsPerSec * 2),
		},
	})

	engine.Start()
	log.Println("✅ Game Engine started")

	go func() {
		addr := ":" + strconv.Itoa(serverCfg.Port)
		log.Printf("🌐 API server on http://localhost%s", addr)
		log.Printf("🔌 WebSocket: ws://localhost%s/ws (or /socket.io/)", addr)

		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Server shutdown: %v", err)
	}
	engine.Stop()
	journal.Stop()
	if debugServer != nil {
		debugServer.Shutdown(ctx)
	}
	log.Println("👋 Goodbye!")
}
