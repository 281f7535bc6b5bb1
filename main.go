package main

import (
	"Dinder/config"
	_ "Dinder/config/swagger"
	dinder_constants "Dinder/constants/dinder"
	"Dinder/middleware"
	"Dinder/routes"
	"Dinder/services/bus"
	"Dinder/services/discovery"
	"Dinder/services/node"
	"Dinder/services/redis"
	"Dinder/services/socket_io"
	"Dinder/utils"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @title Dinder API
// @version 1.0
// @description Gin-Gonic server for the local side of a Dinder session
// @host localhost:8080
// @BasePath /
func main() {
	log.Println("Setting up server...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if cfg.Prod {
		gin.SetMode(gin.ReleaseMode)
	}

	var redisClient *redis.RedisClient
	var gormDB *gorm.DB

	if cfg.BusDriver == config.BusRedis {
		redisClient, err = config.Connect_redis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Error connecting to Redis: %v", err)
		}
		log.Println("Connection to Redis successful")
		defer redis.CloseRedis(redisClient)
	}

	if cfg.DiscoveryDriver == config.DiscoveryCatalog {
		gormDB, err = config.ConnectGORM(cfg.Postgres)
		if err != nil {
			log.Fatalf("Error connecting to PostgreSQL: %v", err)
		}
		log.Println("GORM Connected")

		// Only migrate in development or during deployment
		if cfg.Postgres.Migrate {
			log.Println("Migrating PostgreSQL database...")
			if err := config.MigrateDatabase(gormDB); err != nil {
				log.Printf("Warning: Database migration failed: %v", err)
			}
		}
		if cfg.Postgres.SeedFile != "" {
			if err := config.SeedCatalog(gormDB, cfg.Postgres.SeedFile); err != nil {
				log.Printf("Warning: Catalog seeding failed: %v", err)
			}
		}

		sqlDB, err := gormDB.DB()
		if err != nil {
			log.Fatalf("Error reading GORM PostgreSQL instance: %v", err)
		}
		defer sqlDB.Close()
	}

	provider, err := buildProvider(cfg, gormDB)
	if err != nil {
		log.Fatalf("Error setting up candidate discovery: %v", err)
	}

	n := node.New(buildTransportFactory(cfg, redisClient), provider, dinder_constants.SessionTopic)
	defer n.Close()

	r := gin.New()
	r.Use(gin.Recovery(), utils.Logger())

	middleware.SetUpMiddleware(r, cfg.CookieKey)

	routes.SetupRoutes(r, n)

	sio := &socket_io.MySocketServer{}
	sio.Start(r, n, cfg.SocketDebug)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	SignalC := make(chan os.Signal, 1)
	signal.Notify(SignalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-SignalC
		log.Println("Shutting down...")
		sio.Close()
		if err := n.Close(); err != nil {
			log.Printf("Error closing session: %v", err)
		}
		srv.Close()
	}()

	log.Printf("Server starting on port %s (bus=%s, discovery=%s)", cfg.Port, cfg.BusDriver, cfg.DiscoveryDriver)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Error starting server: %v", err)
	}
}

// buildTransportFactory opens one bus handle per session. The in-memory hub
// is shared by every session of this process.
func buildTransportFactory(cfg config.Config, redisClient *redis.RedisClient) node.TransportFactory {
	if cfg.BusDriver == config.BusRedis {
		return func() (bus.Transport, error) {
			return bus.NewRedisTransport(redisClient, cfg.BusName), nil
		}
	}
	hub := bus.NewHub()
	return func() (bus.Transport, error) {
		return hub.Attach(cfg.BusName), nil
	}
}

func buildProvider(cfg config.Config, db *gorm.DB) (discovery.Provider, error) {
	switch cfg.DiscoveryDriver {
	case config.DiscoveryCatalog:
		return discovery.NewCatalogProvider(db), nil
	case config.DiscoveryFeed:
		return discovery.NewFeedProvider(cfg.FeedURL, &http.Client{Timeout: 15 * time.Second}), nil
	}
	return discovery.LoadStaticProvider(cfg.StaticCatalogFile)
}
