package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server  ServerConfig
	Proxy   ProxyConfig
	Scraper ScraperConfig
	Browser BrowserConfig
	Export  ExportConfig
	Redis   RedisConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// ProxyConfig points at the rotating-IP gateway. Every browser session
// authenticates through it with a per-session username.
type ProxyConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

type ScraperConfig struct {
	MaxAttempts int
	PaceMin     time.Duration
	PaceMax     time.Duration
	RunTimeout  time.Duration
	UserWait    time.Duration
	BulkLimit   int
}

type BrowserConfig struct {
	Headless    bool
	PageTimeout time.Duration
	// MaxLaunches bounds concurrent browser starts; launching is the
	// resource-heavy phase, running is not.
	MaxLaunches int
}

type ExportConfig struct {
	CSVPath          string
	PostgresEnabled  bool
	DatabaseHost     string
	DatabasePort     int
	DatabaseUser     string
	DatabasePassword string
	DatabaseName     string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Stream   string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 15*time.Minute),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Proxy: ProxyConfig{
			Host:     getEnvOrDefault("PROXY_HOST", ""),
			Port:     getIntOrDefault("PROXY_PORT", 0),
			Username: getEnvOrDefault("PROXY_USERNAME", ""),
			Password: getEnvOrDefault("PROXY_PASSWORD", ""),
		},
		Scraper: ScraperConfig{
			MaxAttempts: getIntOrDefault("SCRAPER_MAX_ATTEMPTS", 3),
			PaceMin:     getDurationOrDefault("SCRAPER_PACE_MIN", 2*time.Second),
			PaceMax:     getDurationOrDefault("SCRAPER_PACE_MAX", 5*time.Second),
			RunTimeout:  getDurationOrDefault("SCRAPER_RUN_TIMEOUT", 10*time.Minute),
			UserWait:    getDurationOrDefault("SCRAPER_USER_WAIT", 120*time.Second),
			BulkLimit:   getIntOrDefault("SCRAPER_BULK_LIMIT", 50),
		},
		Browser: BrowserConfig{
			Headless:    getBoolOrDefault("BROWSER_HEADLESS", true),
			PageTimeout: getDurationOrDefault("BROWSER_PAGE_TIMEOUT", 45*time.Second),
			MaxLaunches: getIntOrDefault("BROWSER_MAX_LAUNCHES", 1),
		},
		Export: ExportConfig{
			CSVPath:          getEnvOrDefault("EXPORT_CSV_PATH", ""),
			PostgresEnabled:  getBoolOrDefault("EXPORT_POSTGRES_ENABLED", false),
			DatabaseHost:     getEnvOrDefault("DB_HOST", "localhost"),
			DatabasePort:     getIntOrDefault("DB_PORT", 5432),
			DatabaseUser:     getEnvOrDefault("DB_USER", "postgres"),
			DatabasePassword: getEnvOrDefault("DB_PASSWORD", ""),
			DatabaseName:     getEnvOrDefault("DB_NAME", "pricescout"),
		},
		Redis: RedisConfig{
			Enabled:  getBoolOrDefault("REDIS_ENABLED", false),
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Proxy.Host == "" || c.Proxy.Port == 0 {
		return fmt.Errorf("PROXY_HOST and PROXY_PORT are required")
	}
	if c.Proxy.Username == "" || c.Proxy.Password == "" {
		return fmt.Errorf("PROXY_USERNAME and PROXY_PASSWORD are required")
	}

	if c.Scraper.MaxAttempts < 1 {
		return fmt.Errorf("SCRAPER_MAX_ATTEMPTS must be at least 1")
	}
	if c.Scraper.PaceMin > c.Scraper.PaceMax {
		return fmt.Errorf("SCRAPER_PACE_MIN cannot be greater than SCRAPER_PACE_MAX")
	}
	if c.Scraper.BulkLimit < 1 {
		return fmt.Errorf("SCRAPER_BULK_LIMIT must be at least 1")
	}

	if c.Browser.MaxLaunches < 1 {
		return fmt.Errorf("BROWSER_MAX_LAUNCHES must be at least 1")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
