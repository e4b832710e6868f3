package dbmysql

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"

	"botrelay/internal/config"
)

func TestGormLogger(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	prod := &config.Config{Server: config.ServerConfig{Environment: "production"}}
	gormLogger(prod, log).Info(context.Background(), "not logged at warn level")
	assert.Empty(t, buf.String())

	gormLogger(prod, log).Warn(context.Background(), "slow pool %d", 3)
	assert.Contains(t, buf.String(), `"component":"gorm"`)
	assert.Contains(t, buf.String(), "slow pool 3")

	buf.Reset()
	dev := &config.Config{Server: config.ServerConfig{Environment: "development"}}
	gormLogger(dev, log).Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	assert.Contains(t, buf.String(), "SELECT 1")
}

func TestGormLogger_SilentLevelOverride(t *testing.T) {
	var buf bytes.Buffer
	l := gormLogger(&config.Config{}, zerolog.New(&buf)).LogMode(logger.Silent)
	l.Error(context.Background(), "dropped")
	assert.Empty(t, buf.String())
}
