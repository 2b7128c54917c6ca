package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Gmail     GmailConfig     `yaml:"gmail"`
	PDF       PDFConfig       `yaml:"pdf"`
	Documents DocumentsConfig `yaml:"documents"`
	Engine    EngineConfig    `yaml:"engine"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_minutes"`
}

// RedisConfig holds Redis connection settings for the progress counters.
// Leave Addr empty to run without Redis; progress tracking degrades to a
// no-op.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GmailConfig holds Google Workspace domain-wide delegation settings. The
// service account key is JSON credentials for an account granted the
// gmail.send scope; sends impersonate each sender's address.
type GmailConfig struct {
	ServiceAccountFile string `yaml:"service_account_file"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
}

// PDFConfig holds Gotenberg settings for letter generation
type PDFConfig struct {
	GotenbergURL   string  `yaml:"gotenberg_url"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	PaperWidth     float64 `yaml:"paper_width"`
	PaperHeight    float64 `yaml:"paper_height"`
}

// DocumentsConfig holds S3 settings for archiving generated letters
type DocumentsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	S3Bucket string `yaml:"s3_bucket"`
	S3Region string `yaml:"s3_region"`
}

// EngineConfig holds campaign loop pacing and safety settings
type EngineConfig struct {
	PollIntervalSeconds int  `yaml:"poll_interval_seconds"`
	RetryBackoffSeconds int  `yaml:"retry_backoff_seconds"`
	MaxSendAttempts     int  `yaml:"max_send_attempts"`
	SafetyMode          bool `yaml:"safety_mode"`
	// TestRecipient receives every email when safety mode is on. With
	// safety mode on and no test recipient, nothing is sent at all.
	TestRecipient string `yaml:"test_recipient"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30
	}
	if cfg.Gmail.TimeoutSeconds == 0 {
		cfg.Gmail.TimeoutSeconds = 30
	}
	if cfg.PDF.GotenbergURL == "" {
		cfg.PDF.GotenbergURL = "http://localhost:3000"
	}
	if cfg.PDF.TimeoutSeconds == 0 {
		cfg.PDF.TimeoutSeconds = 30
	}
	if cfg.PDF.PaperWidth == 0 {
		cfg.PDF.PaperWidth = 8.5
	}
	if cfg.PDF.PaperHeight == 0 {
		cfg.PDF.PaperHeight = 11
	}
	if cfg.Documents.S3Region == "" {
		cfg.Documents.S3Region = "us-east-1"
	}
	if cfg.Engine.PollIntervalSeconds == 0 {
		cfg.Engine.PollIntervalSeconds = 60
	}
	if cfg.Engine.RetryBackoffSeconds == 0 {
		cfg.Engine.RetryBackoffSeconds = 30
	}
	if cfg.Engine.MaxSendAttempts == 0 {
		cfg.Engine.MaxSendAttempts = 3
	}

	return &cfg, nil
}

// LoadFromEnv loads config from file and overrides with environment variables
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if keyFile := os.Getenv("GMAIL_SERVICE_ACCOUNT_FILE"); keyFile != "" {
		cfg.Gmail.ServiceAccountFile = keyFile
	}
	if url := os.Getenv("GOTENBERG_URL"); url != "" {
		cfg.PDF.GotenbergURL = url
	}
	if bucket := os.Getenv("DOCUMENTS_S3_BUCKET"); bucket != "" {
		cfg.Documents.S3Bucket = bucket
		cfg.Documents.Enabled = true
	}
	if region := os.Getenv("DOCUMENTS_S3_REGION"); region != "" {
		cfg.Documents.S3Region = region
	}
	if v := os.Getenv("SAFETY_MODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Engine.SafetyMode = b
		}
	}
	if v := os.Getenv("TEST_RECIPIENT_EMAIL"); v != "" {
		cfg.Engine.TestRecipient = v
	}
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}

	return cfg, nil
}
