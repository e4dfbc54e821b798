package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/joho/godotenv"

	"github.com/mkraev/veloshop/internal/models"
)

type Config struct {
	DBPath        string
	DataDir       string
	JWTSecret     []byte
	RefreshSecret []byte
	AdminUsername string
	AdminPassword string
	ESURL         string
	ESUser        string
	ESPassword    string
	ESIndex       string
	KafkaAddress  string
	LogLevel      string
	Port          string
}

func must(v string, name string) string {
	if v == "" {
		log.Fatalf("missing required env %s", name)
	}
	return v
}

func getenv(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	return &Config{
		DBPath:        getenv("DB_PATH", "veloshop.db"),
		DataDir:       getenv("DATA_DIR", "data"),
		JWTSecret:     []byte(must(os.Getenv("JWT_HS256_SECRET"), "JWT_HS256_SECRET")),
		RefreshSecret: []byte(must(os.Getenv("REFRESH_HS256_SECRET"), "REFRESH_HS256_SECRET")),
		AdminUsername: getenv("ADMIN_USERNAME", "admin"),
		AdminPassword: getenv("ADMIN_PASSWORD", "admin"),
		ESURL:         os.Getenv("ES_URL"),
		ESUser:        os.Getenv("ES_USER"),
		ESPassword:    os.Getenv("ES_PASSWORD"),
		ESIndex:       getenv("ES_INDEX", "products"),
		KafkaAddress:  os.Getenv("KAFKA_ADDRESS"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		Port:          getenv("SERVER_PORT", "8080"),
	}
}

// InitDB opens the single-file store and migrates the schema. Safe to call on
// every startup.
func InitDB(ctx context.Context, path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	// sqlite: a single writer avoids SQLITE_BUSY under concurrent handlers.
	sqlDB.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.CartItem{},
		&models.Discount{},
		&models.UserAction{},
		&models.AdminAction{},
		&models.RefreshToken{},
		&models.Setting{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}
