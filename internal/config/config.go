package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App         AppConfig        `yaml:"app"`
	Database    DatabaseConfig   `yaml:"database"`
	Redis       RedisConfig      `yaml:"redis"`
	API         APIConfig        `yaml:"api"`
	Chat        ChatConfig       `yaml:"chat"`
	Points      PointsConfig     `yaml:"points"`
	Backup      BackupConfig     `yaml:"backup"`
	Monitoring  MonitoringConfig `yaml:"monitoring"`
	Logging     LoggingConfig    `yaml:"logging"`
	Google      GoogleConfig     `yaml:"google"`
	Telegram    TelegramConfig   `yaml:"telegram"`
	Worker      WorkerConfig     `yaml:"worker"`
	CatalogPath string           `yaml:"catalog_path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type APIConfig struct {
	Port      int                `yaml:"port"`
	JWT       JWTConfig          `yaml:"jwt"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
	TTL    string `yaml:"ttl"`
}

// TokenTTL parses the configured TTL, defaulting to 24h.
func (j JWTConfig) TokenTTL() time.Duration {
	d, err := time.ParseDuration(j.TTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ChatConfig struct {
	MessageLimit  int `yaml:"message_limit"`  // сообщений в окне
	MessageWindow int `yaml:"message_window"` // окно в секундах
	HistorySize   int `yaml:"history_size"`
	MaxBodyLength int `yaml:"max_body_length"`
}

type PointsConfig struct {
	SignupBonus         int64 `yaml:"signup_bonus"`
	DiaryReward         int64 `yaml:"diary_reward"`
	QuestionnaireReward int64 `yaml:"questionnaire_reward"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool   `yaml:"prometheus_enabled"`
	PrometheusPort    int    `yaml:"prometheus_port"`
	LogLevel          string `yaml:"log_level"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type GoogleConfig struct {
	GoogleCredentialsFile string `yaml:"credentials_file"`
	StaysSpreadSheetID    string `yaml:"stays_spreadsheet_id"`
	LedgerSpreadSheetID   string `yaml:"ledger_spreadsheet_id"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

type WorkerConfig struct {
	PollInterval  string `yaml:"poll_interval"`
	SweepInterval string `yaml:"sweep_interval"`
	BatchSize     int    `yaml:"batch_size"`
}

func (w WorkerConfig) Poll() time.Duration {
	d, err := time.ParseDuration(w.PollInterval)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

func (w WorkerConfig) Sweep() time.Duration {
	d, err := time.ParseDuration(w.SweepInterval)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

func Load(configPath string) (*Config, error) {
	// Загружаем .env файл если существует
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.API.JWT.Secret == "" || c.API.JWT.Secret == "CHANGE_ME" {
		return errors.New("api jwt secret is required")
	}
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return errors.New("telegram enabled but bot token is empty")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "bezero"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.JWT.TTL == "" {
		c.API.JWT.TTL = "24h"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Chat.MessageLimit == 0 {
		c.Chat.MessageLimit = 20
	}
	if c.Chat.MessageWindow == 0 {
		c.Chat.MessageWindow = 60
	}
	if c.Chat.HistorySize == 0 {
		c.Chat.HistorySize = 50
	}
	if c.Chat.MaxBodyLength == 0 {
		c.Chat.MaxBodyLength = 2000
	}
	if c.Points.SignupBonus == 0 {
		c.Points.SignupBonus = 500
	}
	if c.Points.DiaryReward == 0 {
		c.Points.DiaryReward = 50
	}
	if c.Points.QuestionnaireReward == 0 {
		c.Points.QuestionnaireReward = 30
	}
	if c.Worker.PollInterval == "" {
		c.Worker.PollInterval = "2s"
	}
	if c.Worker.SweepInterval == "" {
		c.Worker.SweepInterval = "1m"
	}
	if c.Worker.BatchSize == 0 {
		c.Worker.BatchSize = 20
	}
	if c.CatalogPath == "" {
		c.CatalogPath = "configs/catalog.yaml"
	}
}
