package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"theater_inventory/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to postgres (default) or sqlite. GORM_LOG picks the SQL log level.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch strings.ToLower(driver) {
	case "", "postgres":
		dial = postgres.Open(dsn)
	case "sqlite":
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		dial = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel(os.Getenv("GORM_LOG")),
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
	return gorm.Open(dial, &gorm.Config{Logger: gormLogger, TranslateError: true})
}

func logLevel(v string) logger.LogLevel {
	switch strings.ToLower(v) {
	case "off", "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// DSNFromEnv prefers DATABASE_URL and falls back to the DB_* parts.
func DSNFromEnv() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	if strings.EqualFold(os.Getenv("DB_DRIVER"), "sqlite") {
		return os.Getenv("DB_PATH")
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
}

func ConnectDB() *gorm.DB {
	conn, err := Open(os.Getenv("DB_DRIVER"), DSNFromEnv())
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err = Migrate(conn); err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return conn
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Location{},
		&models.Event{},
		&models.Item{},
		&models.LocationAllocation{},
		&models.EventAllocation{},
		&models.AuditEntry{},
	); err != nil {
		return err
	}

	// 某地点当前在库的分配（未归还）
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_active_by_location
	  ON %s (location_id, item_id)
	  WHERE status <> 'returned';
	`, models.LocationAllocationTable, models.LocationAllocationTable)).Error; err != nil {
		return err
	}

	// 活动分配里仍占用库存的记录
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_open_by_item
	  ON %s (item_id, status)
	  WHERE status NOT IN ('returned', 'cancelled');
	`, models.EventAllocationTable, models.EventAllocationTable)).Error; err != nil {
		return err
	}

	// 历史查询：按物品倒序
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_item_created_desc
	  ON %s (item_id, created_at DESC, id DESC);
	`, models.AuditTable, models.AuditTable)).Error; err != nil {
		return err
	}

	return nil
}
