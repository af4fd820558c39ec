package config

import (
	"time"

	yamlenv "github.com/ifuryst/go-yaml-env"

	"github.com/ifuryst/scribe/pkg/logger"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Logger     logger.Config    `yaml:"logger"`
	LLM        LLMConfig        `yaml:"llm"`
	Image      ImageConfig      `yaml:"image"`
	Generation GenerationConfig `yaml:"generation"`
	Auth       AuthConfig       `yaml:"auth"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Redis      RedisConfig      `yaml:"redis"`
	NATS       NATSConfig       `yaml:"nats"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Host     string `yaml:"host"`
	Mode     string `yaml:"mode"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// DatabaseConfig selects the article store. Type is one of postgres, mysql,
// sqlite or mongo. URI is used by mongo, Path by sqlite.
type DatabaseConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"timezone"`
	Path     string `yaml:"path"`
	URI      string `yaml:"uri"`
}

type LLMConfig struct {
	Provider               string        `yaml:"provider"`
	APIKey                 string        `yaml:"api_key"`
	Endpoint               string        `yaml:"endpoint"`
	Model                  string        `yaml:"model"`
	Temperature            float64       `yaml:"temperature"`
	TopP                   float64       `yaml:"top_p"`
	TopK                   int           `yaml:"top_k"`
	MaxOutputTokens        int           `yaml:"max_output_tokens"`
	CommentMaxOutputTokens int           `yaml:"comment_max_output_tokens"`
	Timeout                time.Duration `yaml:"timeout"`
}

type ImageConfig struct {
	APIKey          string        `yaml:"api_key"`
	Endpoint        string        `yaml:"endpoint"`
	PerPage         int           `yaml:"per_page"`
	Orientation     string        `yaml:"orientation"`
	DomainKeyword   string        `yaml:"domain_keyword"`
	GenericQueries  []string      `yaml:"generic_queries"`
	DefaultURL      string        `yaml:"default_url"`
	SearchTimeout   time.Duration `yaml:"search_timeout"`
	VerifyTimeout   time.Duration `yaml:"verify_timeout"`
	MaxVerifyChecks int           `yaml:"max_verify_checks"`
}

type GenerationConfig struct {
	CronSecret         string `yaml:"cron_secret"`
	Workers            int    `yaml:"workers"`
	StrictFields       bool   `yaml:"strict_fields"`
	EnableComments     *bool  `yaml:"enable_comments"`
	CommentCount       int    `yaml:"comment_count"`
	CommentEmailDomain string `yaml:"comment_email_domain"`
	TopicCatalogPath   string `yaml:"topic_catalog_path"`
}

// CommentsEnabled reports whether the secondary comment stage runs.
// Comments are on unless explicitly disabled.
func (g GenerationConfig) CommentsEnabled() bool {
	return g.EnableComments == nil || *g.EnableComments
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	TOTPSecret string        `yaml:"totp_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type SchedulerConfig struct {
	Interval  string `yaml:"interval"`
	Enabled   bool   `yaml:"enabled"`
	BatchSize int    `yaml:"batch_size"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// MonitoringConfig controls retention of stored error logs.
type MonitoringConfig struct {
	RetentionDays   int           `yaml:"retention_days"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

func LoadConfig(configPath string) (*Config, error) {
	cfg, err := yamlenv.LoadConfig[Config](configPath)
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// ApplyDefaults fills zero values with the service defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5334
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}

	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		switch cfg.Database.Type {
		case "mysql":
			cfg.Database.Port = 3306
		default:
			cfg.Database.Port = 5432
		}
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.TimeZone == "" {
		cfg.Database.TimeZone = "UTC"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "scribe.db"
	}
	if cfg.Database.Database == "" {
		cfg.Database.Database = "scribe"
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.9
	}
	if cfg.LLM.TopP == 0 {
		cfg.LLM.TopP = 0.95
	}
	if cfg.LLM.TopK == 0 {
		cfg.LLM.TopK = 40
	}
	if cfg.LLM.MaxOutputTokens == 0 {
		cfg.LLM.MaxOutputTokens = 8192
	}
	if cfg.LLM.CommentMaxOutputTokens == 0 {
		cfg.LLM.CommentMaxOutputTokens = 1024
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 90 * time.Second
	}

	if cfg.Image.Endpoint == "" {
		cfg.Image.Endpoint = "https://api.pexels.com/v1/search"
	}
	if cfg.Image.PerPage == 0 {
		cfg.Image.PerPage = 5
	}
	if cfg.Image.Orientation == "" {
		cfg.Image.Orientation = "landscape"
	}
	if cfg.Image.DomainKeyword == "" {
		cfg.Image.DomainKeyword = "travel"
	}
	if len(cfg.Image.GenericQueries) == 0 {
		cfg.Image.GenericQueries = []string{"travel landscape", "travel adventure", "scenic destination"}
	}
	if cfg.Image.DefaultURL == "" {
		cfg.Image.DefaultURL = "https://images.pexels.com/photos/346885/pexels-photo-346885.jpeg"
	}
	if cfg.Image.SearchTimeout == 0 {
		cfg.Image.SearchTimeout = 10 * time.Second
	}
	if cfg.Image.VerifyTimeout == 0 {
		cfg.Image.VerifyTimeout = 5 * time.Second
	}
	if cfg.Image.MaxVerifyChecks == 0 {
		cfg.Image.MaxVerifyChecks = 5
	}

	if cfg.Generation.Workers == 0 {
		cfg.Generation.Workers = 1
	}
	if cfg.Generation.CommentCount == 0 {
		cfg.Generation.CommentCount = 3
	}
	if cfg.Generation.CommentEmailDomain == "" {
		cfg.Generation.CommentEmailDomain = "example.com"
	}

	if cfg.Auth.SessionTTL == 0 {
		cfg.Auth.SessionTTL = 24 * time.Hour
	}

	if cfg.Scheduler.Interval == "" {
		cfg.Scheduler.Interval = "24h"
	}
	if cfg.Scheduler.BatchSize == 0 {
		cfg.Scheduler.BatchSize = 1
	}

	if cfg.NATS.Subject == "" {
		cfg.NATS.Subject = "scribe.article.generated"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Monitoring.RetentionDays == 0 {
		cfg.Monitoring.RetentionDays = 90
	}
	if cfg.Monitoring.CleanupInterval == 0 {
		cfg.Monitoring.CleanupInterval = 24 * time.Hour
	}
}
