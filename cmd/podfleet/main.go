package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"podfleet/config"
	"podfleet/engine"
	"podfleet/fleetstate"
	"podfleet/messaging"
	"podfleet/store"
	"podfleet/www"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "podfleet.yaml", "path to config file")
	debug := flag.Bool("debug", false, "log every robot move")
	flag.Parse()

	if *showVersion {
		fmt.Println("podfleet", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	log.Printf("podfleet: database open (%s)", cfg.Database.Driver)

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	var redisStore *fleetstate.RedisStore
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("podfleet: redis not available (%v), running without cache", err)
	} else {
		redisStore = fleetstate.NewRedisStore(redisClient)
		log.Printf("podfleet: redis connected (%s)", cfg.Redis.Address)
	}
	cancel()

	fleetState := fleetstate.NewManager(db, redisStore)
	if err := fleetState.SyncRedisFromSQL(); err != nil {
		log.Printf("podfleet: redis sync from SQL: %v", err)
	}

	// Messaging client
	msgClient := messaging.NewClient(&cfg.Messaging)
	if err := msgClient.Connect(); err != nil {
		log.Printf("podfleet: messaging connect failed (%v)", err)
	} else {
		log.Printf("podfleet: messaging connected (%s)", msgClient.Backend())
	}
	defer msgClient.Close()

	// Engine
	eng := engine.New(engine.Config{
		AppConfig:  cfg,
		DB:         db,
		FleetState: fleetState,
		Debug:      *debug,
	})
	eng.Start()
	defer eng.Stop()

	// Inbound task requests
	commands := messaging.NewCommandHandler(eng, db, cfg.Messaging.StationID, cfg.Messaging.TelemetryTopic)
	ingestor := commands.Ingestor()
	if err := msgClient.Subscribe(cfg.Messaging.CommandTopic, func(_ string, data []byte) {
		ingestor.HandleRaw(data)
	}); err != nil {
		log.Printf("podfleet: command subscribe failed: %v", err)
	} else {
		log.Printf("podfleet: listening for commands on %s", cfg.Messaging.CommandTopic)
	}

	// Outbox drainer
	drainer := messaging.NewOutboxDrainer(db, msgClient, cfg.Messaging.OutboxDrainInterval)
	drainer.Start()
	defer drainer.Stop()

	// Web server
	handler, stopWeb := www.NewRouter(eng, msgClient)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		log.Printf("podfleet: web server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("web server: %v", err)
		}
	}()

	log.Printf("podfleet: ready (%d robots, %d stations)", cfg.Sim.Robots, len(cfg.Sim.Stations))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("podfleet: shutting down...")
	stopWeb()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	log.Printf("podfleet: stopped")
}
