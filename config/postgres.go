package config

import (
	"Dinder/models/postgres"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ConnectGORM returns a GORM DB instance connected to PostgreSQL
func ConnectGORM(cfg Postgres) (*gorm.DB, error) {
	// NOTE: See https://github.com/go-gorm/gorm/issues/5409
	sqlDB1, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		log.Printf("Error connecting to PostgreSQL: %v", err)
		return nil, err
	}

	gormConfig := &gorm.Config{}
	if cfg.Verbose {
		newLogger := logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
			logger.Config{
				SlowThreshold:             time.Second, // Slow SQL threshold
				LogLevel:                  logger.Info, // Log level (Silent, Error, Warn, Info)
				IgnoreRecordNotFoundError: false,       // Ignore ErrRecordNotFound error for logger
				Colorful:                  true,        // Enable color
			},
		)
		gormConfig.Logger = newLogger
	}

	db, err := gorm.Open(pgdriver.New(pgdriver.Config{
		Conn:                 sqlDB1,
		PreferSimpleProtocol: true,
	}), gormConfig)
	if err != nil {
		log.Printf("Error connecting to PostgreSQL with GORM: %v", err)
		return nil, err
	}

	// Get the underlying SQL DB object
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying SQL DB: %v", err)
		return nil, err
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		log.Printf("Error pinging PostgreSQL: %v", err)
		return nil, err
	}

	// Set connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Successfully connected to PostgreSQL with GORM")
	return db, nil
}

// MigrateDatabase migrates the GORM models to the PostgreSQL database
func MigrateDatabase(db *gorm.DB) error {
	// NOTE: for more info, execute db.Debug().AutoMigrate(...)
	if err := db.AutoMigrate(postgres.Restaurant{}); err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	log.Println("PostgreSQL database migrated successfully")
	return nil
}

// LoadCatalogSeed reads a JSON array of restaurants
func LoadCatalogSeed(path string) ([]postgres.Restaurant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading catalog seed: %w", err)
	}

	var restaurants []postgres.Restaurant
	if err := json.Unmarshal(data, &restaurants); err != nil {
		return nil, fmt.Errorf("error parsing catalog seed %s: %w", path, err)
	}
	for i, r := range restaurants {
		if r.ID == "" || r.Name == "" || r.City == "" {
			return nil, fmt.Errorf("catalog seed entry %d needs id, name and city", i)
		}
		if len(r.Tags) == 0 {
			restaurants[i].Tags = []byte("[]")
		}
	}
	return restaurants, nil
}

// SeedCatalog inserts the restaurants of a seed file. Existing ids are left
// untouched so seeding can run at every start.
func SeedCatalog(db *gorm.DB, path string) error {
	restaurants, err := LoadCatalogSeed(path)
	if err != nil {
		return err
	}
	if len(restaurants) == 0 {
		return nil
	}

	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&restaurants)
	if result.Error != nil {
		return fmt.Errorf("error seeding catalog: %w", result.Error)
	}
	log.Printf("Catalog seeded: %d new of %d restaurants", result.RowsAffected, len(restaurants))
	return nil
}
