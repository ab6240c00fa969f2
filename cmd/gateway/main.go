package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cursorstyle/chat-gateway/internal/ban"
	"github.com/cursorstyle/chat-gateway/internal/config"
	"github.com/cursorstyle/chat-gateway/internal/gateway"
	"github.com/cursorstyle/chat-gateway/internal/history"
	"github.com/cursorstyle/chat-gateway/internal/identity"
	"github.com/cursorstyle/chat-gateway/internal/messaging"
	"github.com/cursorstyle/chat-gateway/internal/moderation"
	"github.com/cursorstyle/chat-gateway/internal/ratelimit"
	"github.com/cursorstyle/chat-gateway/internal/room"
	"github.com/cursorstyle/chat-gateway/internal/store"
	"github.com/cursorstyle/chat-gateway/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	log.Printf("chat gateway starting")
	log.Printf("  listen_addr:      %s", cfg.ListenAddr)
	log.Printf("  worker_pool:      %d", cfg.WorkerPoolSize)
	log.Printf("  max_connections:  %d", cfg.MaxConnections)
	log.Printf("  redis_addr:       %s", cfg.RedisAddr)
	log.Printf("  nats_url:         %s", cfg.NATSURL)
	log.Printf("  ban_duration:     %s", cfg.BanDuration)
	log.Printf("  history_window:   %d", cfg.HistoryWindow)
	log.Printf("  oracle_enabled:   %v", cfg.OracleKey != "")

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			cancel()
			log.Fatalf("connect to Redis: %v", err)
		}
		cancel()
	}

	// --- Postgres (runs migrations on open) ---
	st, err := store.Open(cfg.PostgresURL)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	// --- NATS ---
	natsConfig := messaging.DefaultNATSConfig()
	natsConfig.URL = cfg.NATSURL
	natsClient, err := messaging.NewNATSClient(natsConfig)
	if err != nil {
		log.Fatalf("connect to NATS: %v", err)
	}

	// --- pipeline components ---
	moderator := moderation.Default()
	oracle := moderation.NewOracle(cfg.OracleEndpoint, cfg.OracleKey, cfg.OracleModel, cfg.OracleTimeout, natsClient)
	cipher := identity.NewCipher(cfg.IdentitySecret)
	registry := room.NewRegistry()
	hist := history.New(st, cfg.HistoryWindow, cfg.HistoryMaxAge)
	limiter := ratelimit.NewTracker(rdb)
	ledger := ban.NewLedger(rdb, cfg.BanDuration)

	gw := gateway.New(cfg, st, cipher, registry, hist, limiter, ledger, moderator, oracle, nil)

	dispatcher := ws.NewMessageDispatcher()
	gw.RegisterHandlers(dispatcher)

	serverConfig := ws.ServerConfig{
		ListenAddr:     cfg.ListenAddr,
		WorkerPoolSize: cfg.WorkerPoolSize,
		MaxConnections: cfg.MaxConnections,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
	}
	server := ws.NewServer(serverConfig, dispatcher.Dispatch)
	dispatcher.SetServer(server)

	gw.SetDisconnect(server.RemoveConnection)
	server.SetBanCheck(ledger.IsBanned)
	server.SetOnConnect(gw.OnConnect)
	server.SetOnDisconnect(gw.OnDisconnect)

	// --- background loops ---
	bgCtx, bgCancel := context.WithCancel(context.Background())
	go registry.StartPresence(bgCtx, cfg.PresenceInterval)
	go st.StartRetentionSweep(bgCtx, cfg.MessageRetention)

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down", sig)
		bgCancel()
		natsClient.Close()
		if err := server.Shutdown(); err != nil {
			log.Printf("shutdown error: %v", err)
		}
		if err := st.Close(); err != nil {
			log.Printf("store close error: %v", err)
		}
		if err := rdb.Close(); err != nil {
			log.Printf("redis close error: %v", err)
		}
		os.Exit(0)
	}()

	if err := server.Start(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
