package db

import (
	"log/slog"
	"time"

	"github.com/samber/oops"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the process-wide connection, set by Connect.
var DB *gorm.DB

// Connect opens the Postgres pool for dsn and stores it in DB.
func Connect(dsn string, log *slog.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, oops.Code("DB_CONFIG_MISSING").Errorf("DATABASE_URL is empty")
	}

	// Slow queries and errors go through slog so they carry the service fields.
	lg := logger.New(
		slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             100 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         lg,
		TranslateError: true,
	})
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}

	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	DB = conn
	log.Info("connected to database")
	return conn, nil
}

// Close releases the pool held in DB.
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
