package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Snapshot SnapshotConfig `json:"snapshot"`
	Engine   EngineConfig   `json:"engine"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig represents database configuration. Driver is "sqlite"
// (Path is the database file) or "postgres".
type DatabaseConfig struct {
	Driver       string        `json:"driver"`
	Path         string        `json:"path"`
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	User         string        `json:"user"`
	Password     string        `json:"password"`
	DBName       string        `json:"db_name"`
	SSLMode      string        `json:"ssl_mode"`
	MaxOpenConns int           `json:"max_open_conns"`
	MaxIdleConns int           `json:"max_idle_conns"`
	MaxLifetime  time.Duration `json:"max_lifetime"`
}

// SnapshotConfig selects where the input snapshot lives and how often the
// in-memory sessions are flushed to it.
type SnapshotConfig struct {
	Backend       string        `json:"backend"` // file, database, s3
	FilePath      string        `json:"file_path"`
	Bucket        string        `json:"bucket"`
	Key           string        `json:"key"`
	Region        string        `json:"region"`
	Endpoint      string        `json:"endpoint"`
	FlushSchedule string        `json:"flush_schedule"`
	Prefixes      []string      `json:"prefixes"`
	SessionTTL    time.Duration `json:"session_ttl"`
}

// EngineConfig holds the tunable heuristics of the cash-flow and alerts.
type EngineConfig struct {
	SpotLagMonths         int     `json:"spot_lag_months"`
	MaintenanceMonths     int     `json:"maintenance_months"` // 0 = planting through harvest
	HighSpotExposurePct   float64 `json:"high_spot_exposure_pct"`
	InterestAlertPct      float64 `json:"interest_alert_pct"`
	SafetyMarginWarnSacks float64 `json:"safety_margin_warn_sacks"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// Default returns the configuration used when no file or env override is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       "sqlite",
			Path:         "agro_state.db",
			Host:         "localhost",
			Port:         5432,
			User:         os.Getenv("USER"),
			DBName:       "agro_exposure",
			SSLMode:      "disable",
			MaxOpenConns: 10,
			MaxIdleConns: 2,
		},
		Snapshot: SnapshotConfig{
			Backend:       "file",
			FilePath:      "agro_state.json",
			Key:           "agro_state.json",
			Region:        "us-east-1",
			FlushSchedule: "0 */5 * * * *",
			Prefixes:      []string{"soja_", "milho_"},
			SessionTTL:    12 * time.Hour,
		},
		Engine: EngineConfig{
			SpotLagMonths:         2,
			HighSpotExposurePct:   60,
			InterestAlertPct:      3,
			SafetyMarginWarnSacks: 5,
		},
		Logging: LoggingConfig{
			Level: "debug",
		},
	}
}

// LoadConfig loads configuration from .env, the JSON file and environment
// variables, in that order of increasing precedence.
func LoadConfig(configPath string) (*Config, error) {
	// A missing .env is normal outside development
	_ = godotenv.Load()

	config := Default()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	overrideWithEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings the services cannot start with.
func (c *Config) Validate() error {
	switch c.Snapshot.Backend {
	case "file":
		if c.Snapshot.FilePath == "" {
			return fmt.Errorf("snapshot.file_path is required for the file backend")
		}
	case "database":
		if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
			return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
		}
	case "s3":
		if c.Snapshot.Bucket == "" {
			return fmt.Errorf("snapshot.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unsupported snapshot backend %q", c.Snapshot.Backend)
	}
	if c.Engine.SpotLagMonths < 0 {
		return fmt.Errorf("engine.spot_lag_months must not be negative")
	}
	if c.Engine.MaintenanceMonths < 0 || c.Engine.MaintenanceMonths > 12 {
		return fmt.Errorf("engine.maintenance_months must be between 0 and 12")
	}
	return nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if driver := os.Getenv("DATABASE_DRIVER"); driver != "" {
		config.Database.Driver = driver
	}
	if path := os.Getenv("DATABASE_PATH"); path != "" {
		config.Database.Path = path
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}

	if backend := os.Getenv("SNAPSHOT_BACKEND"); backend != "" {
		config.Snapshot.Backend = backend
	}
	if path := os.Getenv("SNAPSHOT_FILE"); path != "" {
		config.Snapshot.FilePath = path
	}
	if bucket := os.Getenv("SNAPSHOT_BUCKET"); bucket != "" {
		config.Snapshot.Bucket = bucket
	}
	if key := os.Getenv("SNAPSHOT_KEY"); key != "" {
		config.Snapshot.Key = key
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		config.Snapshot.Region = region
	}
	if endpoint := os.Getenv("SNAPSHOT_ENDPOINT"); endpoint != "" {
		config.Snapshot.Endpoint = endpoint
	}
	if schedule := os.Getenv("SNAPSHOT_FLUSH_SCHEDULE"); schedule != "" {
		config.Snapshot.FlushSchedule = schedule
	}
	if prefixes := os.Getenv("SNAPSHOT_PREFIXES"); prefixes != "" {
		config.Snapshot.Prefixes = strings.Split(prefixes, ",")
	}

	if lag := os.Getenv("ENGINE_SPOT_LAG_MONTHS"); lag != "" {
		if v, err := strconv.Atoi(lag); err == nil {
			config.Engine.SpotLagMonths = v
		}
	}
	if months := os.Getenv("ENGINE_MAINTENANCE_MONTHS"); months != "" {
		if v, err := strconv.Atoi(months); err == nil {
			config.Engine.MaintenanceMonths = v
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
