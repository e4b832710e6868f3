package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig `json:"server"`

	// Database Configuration
	Database DatabaseConfig `json:"database"`

	// MongoDB holds attachment blobs (GridFS)
	MongoDB MongoConfig `json:"mongodb"`

	// Redis is optional; when set the delivery guard is shared between instances
	Redis RedisConfig `json:"redis"`

	// Relay Configuration
	Relay RelayConfig `json:"relay"`

	Auth AuthConfig `json:"auth"`

	// Logging Configuration
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port         string `json:"port"`
	Host         string `json:"host"`
	GRPCPort     string `json:"grpc_port"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
	Environment  string `json:"environment"` // development, staging, production
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	DatabaseName string `json:"database_name"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

type MongoConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Database string `json:"database"`
	Bucket   string `json:"bucket"`
}

type RedisConfig struct {
	URL string `json:"url"`
}

// RelayConfig is handed to the delivery scheduler and the HTTP delivery engine.
// Per-bot webhook settings override Timeout, RetryCount and RetryBackoff when set.
type RelayConfig struct {
	Workers      int           `json:"workers"`
	QueueSize    int           `json:"queue_size"`
	EndpointURL  string        `json:"endpoint_url"` // used for bots without their own webhook URL
	Timeout      time.Duration `json:"timeout"`
	RetryCount   int           `json:"retry_count"` // total attempts, including the first one
	RetryBackoff time.Duration `json:"retry_backoff"`
	BaseLinkURL  string        `json:"base_link_url"`

	AnalysisDelay   time.Duration `json:"analysis_delay"`
	AnalysisRetries int           `json:"analysis_retries"`

	TimeoutReply    bool          `json:"timeout_reply"`
	MaxReplyBytes   int64         `json:"max_reply_bytes"`
	EmbedLimitBytes int64         `json:"embed_limit_bytes"`
	PatternsFile    string        `json:"patterns_file"`
	GuardTTL        time.Duration `json:"guard_ttl"`

	// inbound bot messages, per bot key
	InboundRatePerMinute int `json:"inbound_rate_per_minute"`
}

type AuthConfig struct {
	JWTSecret string        `json:"-"`
	TokenTTL  time.Duration `json:"token_ttl"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Format     string `json:"format"`      // json, text
	OutputPath string `json:"output_path"` // stdout, stderr, or file path
}

// LoadConfig reads the .env file when present and then the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		Server: ServerConfig{
			Host:         getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvOrDefault("SERVER_PORT", "8080"),
			GRPCPort:     getEnvOrDefault("GRPC_PORT", "7005"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			Environment:  getEnvOrDefault("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:         getEnvOrDefault("MYSQL_HOST", "localhost"),
			Port:         getEnvOrDefault("MYSQL_PORT", "3306"),
			Username:     getEnvOrDefault("MYSQL_USERNAME", "botrelay"),
			Password:     getEnvOrDefault("MYSQL_PASSWORD", "botrelay"),
			DatabaseName: getEnvOrDefault("MYSQL_DATABASE", "botrelay"),
			MaxOpenConns: getEnvInt("MYSQL_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("MYSQL_MAX_IDLE_CONNS", 5),
		},
		MongoDB: MongoConfig{
			Host:     getEnvOrDefault("MONGO_HOST", "localhost"),
			Port:     getEnvOrDefault("MONGO_PORT", "27017"),
			Username: getEnvOrDefault("MONGO_USERNAME", ""),
			Password: getEnvOrDefault("MONGO_PASSWORD", ""),
			Database: getEnvOrDefault("MONGO_DATABASE", "botrelay"),
			Bucket:   getEnvOrDefault("MONGO_BUCKET", "attachments"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Relay: RelayConfig{
			Workers:              getEnvInt("RELAY_WORKERS", 5),
			QueueSize:            getEnvInt("RELAY_QUEUE_SIZE", 1000),
			EndpointURL:          os.Getenv("RELAY_ENDPOINT_URL"),
			Timeout:              getEnvDuration("RELAY_TIMEOUT", 7*time.Second),
			RetryCount:           getEnvInt("RELAY_RETRY_COUNT", 3),
			RetryBackoff:         getEnvDuration("RELAY_RETRY_BACKOFF", 2*time.Second),
			BaseLinkURL:          strings.TrimRight(getEnvOrDefault("RELAY_BASE_LINK_URL", "http://localhost:8080"), "/"),
			AnalysisDelay:        getEnvDuration("RELAY_ANALYSIS_DELAY", 5*time.Second),
			AnalysisRetries:      getEnvInt("RELAY_ANALYSIS_RETRIES", 3),
			TimeoutReply:         getEnvBool("RELAY_TIMEOUT_REPLY", true),
			MaxReplyBytes:        int64(getEnvInt("RELAY_MAX_REPLY_BYTES", 10<<20)),
			EmbedLimitBytes:      int64(getEnvInt("RELAY_EMBED_LIMIT_BYTES", 1<<20)),
			PatternsFile:         os.Getenv("RELAY_PATTERNS_FILE"),
			GuardTTL:             getEnvDuration("RELAY_GUARD_TTL", time.Hour),
			InboundRatePerMinute: getEnvInt("RELAY_INBOUND_RATE_PER_MINUTE", 30),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			TokenTTL:  getEnvDuration("JWT_TTL", 24*time.Hour),
		},
		Logging: LoggingConfig{
			Level:      getEnvOrDefault("LOG_LEVEL", "info"),
			Format:     getEnvOrDefault("LOG_FORMAT", "text"),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "stdout"),
		},
	}
}

func (cfg *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

func (cfg *Config) GetMongoURI() string {
	if cfg.MongoDB.Username == "" {
		return fmt.Sprintf("mongodb://%s:%s", cfg.MongoDB.Host, cfg.MongoDB.Port)
	}
	return fmt.Sprintf("mongodb://%s:%s@%s:%s",
		url.QueryEscape(cfg.MongoDB.Username),
		url.QueryEscape(cfg.MongoDB.Password),
		cfg.MongoDB.Host,
		cfg.MongoDB.Port,
	)
}

func (cfg *Config) IsDevelopment() bool {
	return cfg.Server.Environment == "development"
}

// Validate checks the values the relay cannot run without.
func (cfg *Config) Validate() error {
	var errs []error
	if cfg.Relay.Workers <= 0 {
		errs = append(errs, errors.New("RELAY_WORKERS must be positive"))
	}
	if cfg.Relay.QueueSize <= 0 {
		errs = append(errs, errors.New("RELAY_QUEUE_SIZE must be positive"))
	}
	if cfg.Relay.Timeout <= 0 {
		errs = append(errs, errors.New("RELAY_TIMEOUT must be positive"))
	}
	if cfg.Relay.RetryCount < 1 {
		errs = append(errs, errors.New("RELAY_RETRY_COUNT must be at least 1"))
	}
	if cfg.Relay.RetryBackoff < 0 {
		errs = append(errs, errors.New("RELAY_RETRY_BACKOFF cannot be negative"))
	}
	if u, err := url.Parse(cfg.Relay.BaseLinkURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("RELAY_BASE_LINK_URL is not an absolute URL: %q", cfg.Relay.BaseLinkURL))
	}
	if cfg.Server.Environment == "production" && cfg.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// getEnvDuration accepts Go durations ("7s", "250ms") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Invalid duration for %s=%q, using %s", key, value, defaultValue)
	return defaultValue
}
