package main

import (
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/HarmonyChat/Cadence/app"
	"github.com/HarmonyChat/Cadence/config"
	"github.com/HarmonyChat/Cadence/guild"
	"github.com/HarmonyChat/Cadence/handlers"
	"github.com/HarmonyChat/Cadence/metrics"
	"github.com/HarmonyChat/Cadence/remote"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Error loading configuration", zap.Error(err))
	}

	// Initialize Prometheus metrics
	metrics.Init()
	metrics.Serve(cfg.Metrics.Addr)

	// Connect to NATS server
	nc, err := nats.Connect(cfg.NATS.ServerURL())
	if err != nil {
		logger.Fatal("Error connecting to NATS", zap.Error(err))
	}
	defer nc.Close()
	logger.Info("Connected to NATS", zap.String("url", nc.ConnectedUrl()))

	// Initialize the guild registry and remote dispatchers
	registry := guild.NewRegistry(logger)
	client := remote.NewClient(nc, cfg.NATS.SubjectPrefix, cfg.NATS.RequestTimeout(), logger)
	gateway := remote.NewGateway(nc, cfg.NATS.SubjectPrefix, logger)

	instance := &app.Cadence{
		Guilds:  registry,
		API:     client,
		Gateway: gateway,
		Prefix:  cfg.NATS.SubjectPrefix,
		Logger:  logger,
	}

	// Set up handlers
	handlers.RegisterGuilds(nc, instance)
	handlers.RegisterMembers(nc, instance)
	handlers.RegisterRoles(nc, instance)
	handlers.RegisterChannels(nc, instance)
	handlers.RegisterVoice(nc, instance)
	handlers.RegisterState(nc, instance)

	// Periodic registry stats
	go func() {
		ticker := time.NewTicker(cfg.Service.StatsInterval())
		defer ticker.Stop()

		for range ticker.C {
			count := registry.Count()
			metrics.GuildCount.Set(float64(count))
			logger.Info("Registry stats", zap.Int("guilds", count))
		}
	}()

	// Keep the service running
	select {}
}
