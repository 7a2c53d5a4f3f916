package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"quad-arena/internal/api"
	"quad-arena/internal/config"
	"quad-arena/internal/render"
	"quad-arena/internal/sim"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file found, using environment variables only")
	}

	cfg := config.Load()
	log.Printf("config: world %.0fx%.0f, %d TPS, node capacity %d, max agents %d",
		cfg.World.Width, cfg.World.Height, cfg.World.TickRate,
		cfg.Index.NodeCapacity, cfg.Limits.MaxAgents)

	engine, err := sim.NewEngine(sim.Config{
		WorldWidth:     cfg.World.Width,
		WorldHeight:    cfg.World.Height,
		TickRate:       cfg.World.TickRate,
		NodeCapacity:   cfg.Index.NodeCapacity,
		DetectionRange: cfg.Index.DetectionRange,
		MaxAgents:      cfg.Limits.MaxAgents,
	})
	if err != nil {
		log.Fatalf("engine init: %v", err)
	}
	engine.SetTickObserver(api.ObserveTick)

	for i := 0; i < cfg.Limits.InitialAgents; i++ {
		engine.Spawn(fmt.Sprintf("wanderer-%02d", i), sim.AgentOptions{})
	}

	if cfg.Server.DebugServer {
		if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
			log.Printf("debug server disabled: %v", err)
		}
	}

	renderer := render.New(int(cfg.World.Width), int(cfg.World.Height))
	server := api.NewServer(api.ServerConfig{
		Engine:   engine,
		Renderer: renderer,
	})

	engine.Start()

	go func() {
		addr := ":" + strconv.Itoa(cfg.Server.Port)
		if err := server.Start(addr); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("ready, press Ctrl+C to stop")
	<-quit

	log.Println("shutting down")
	server.Stop()
	engine.Stop()
}
