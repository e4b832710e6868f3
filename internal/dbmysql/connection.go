package dbmysql

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"botrelay/internal/config"
)

// gormWriter routes gorm's statement log into zerolog.
type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Info().Msgf(format, args...)
}

func gormLogger(cnf *config.Config, log zerolog.Logger) logger.Interface {
	level := logger.Warn
	if cnf.IsDevelopment() {
		level = logger.Info
	}
	return logger.New(gormWriter{log: log.With().Str("component", "gorm").Logger()}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// NewMySQL opens the pool and checks it with a ping.
func NewMySQL(cnf *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cnf.DSN()), &gorm.Config{
		Logger:      gormLogger(cnf, log),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql.DB error: %w", err)
	}
	sqlDB.SetMaxOpenConns(cnf.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cnf.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("cannot reach MySQL at %s:%s: %w", cnf.Database.Host, cnf.Database.Port, err)
	}

	log.Info().
		Str("host", cnf.Database.Host).
		Str("database", cnf.Database.DatabaseName).
		Msg("connected to MySQL")

	return db, nil
}

// AutoMigrate creates or updates every table the relay service owns.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &Webhook{}, &Room{}, &Message{}, &Attachment{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
