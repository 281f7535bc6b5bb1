package config

import (
	dinder_constants "Dinder/constants/dinder"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	BusMemory = "memory"
	BusRedis  = "redis"

	DiscoveryStatic  = "static"
	DiscoveryCatalog = "catalog"
	DiscoveryFeed    = "feed"
)

type Postgres struct {
	User     string
	Password string
	Host     string
	Port     string
	Database string
	Verbose  bool
	Migrate  bool
	SeedFile string
}

// DSN builds the connection url for lib/pq
func (p Postgres) DSN() string {
	// NOTE: https://stackoverflow.com/questions/57205060/how-to-connect-postgresql-database-using-gorm
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s",
		p.User, p.Password, p.Host, p.Port, p.Database)
}

type Config struct {
	Port        string
	Prod        bool
	CookieKey   string
	SocketDebug bool

	BusDriver string
	BusName   string
	RedisURL  string

	DiscoveryDriver   string
	FeedURL           string
	StaticCatalogFile string

	Postgres Postgres
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func isTrue(key string) bool {
	return os.Getenv(key) == "true"
}

// Load reads the environment, from a .env file if there is one, and checks
// that the selected drivers have what they need.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using the environment")
	}

	cfg := Config{
		Port:        getenv("PORT", "8080"),
		Prod:        isTrue("PROD"),
		CookieKey:   getenv("KEY", "dinder-dev-key"),
		SocketDebug: isTrue("SOCKET_DEBUG"),

		BusDriver: strings.ToLower(getenv("BUS_DRIVER", BusMemory)),
		BusName:   getenv("BUS_NAME", dinder_constants.DefaultBusName),
		RedisURL:  getenv("REDIS_URL", "localhost:6379"),

		DiscoveryDriver:   strings.ToLower(getenv("DISCOVERY_DRIVER", DiscoveryStatic)),
		FeedURL:           os.Getenv("DISCOVERY_FEED_URL"),
		StaticCatalogFile: getenv("STATIC_CATALOG_FILE", "data/restaurants.json"),

		Postgres: Postgres{
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			Host:     getenv("POSTGRES_HOST", "localhost"),
			Port:     getenv("POSTGRES_PORT", "5432"),
			Database: os.Getenv("POSTGRES_DATABASE"),
			Verbose:  isTrue("VERBOSE_POSTGRES"),
			Migrate:  isTrue("MIGRATE_POSTGRES"),
			SeedFile: os.Getenv("CATALOG_SEED_FILE"),
		},
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.BusDriver {
	case BusMemory, BusRedis:
	default:
		return fmt.Errorf("unknown BUS_DRIVER %q", c.BusDriver)
	}

	switch c.DiscoveryDriver {
	case DiscoveryStatic:
	case DiscoveryFeed:
		if c.FeedURL == "" {
			return fmt.Errorf("DISCOVERY_FEED_URL is required with the feed driver")
		}
	case DiscoveryCatalog:
		if c.Postgres.Database == "" {
			return fmt.Errorf("POSTGRES_DATABASE is required with the catalog driver")
		}
	default:
		return fmt.Errorf("unknown DISCOVERY_DRIVER %q", c.DiscoveryDriver)
	}
	return nil
}
