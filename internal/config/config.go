// Package config загружает настройки edge узла и облачного сервера через viper:
// файл конфигурации (yaml, toml, json), переменные окружения TILLSYNC_* и флаги cobra.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix префикс переменных окружения: TILLSYNC_DB_PATH, TILLSYNC_LOG_LEVEL
const EnvPrefix = "TILLSYNC"

// ErrInvalidConfig ошибка валидации конфигурации
var ErrInvalidConfig = errors.New("invalid configuration")

// LogConfig настройки логирования
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text или json
	// File путь к файлу лога с ротацией, пусто - stderr
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// EdgeConfig настройки edge узла
type EdgeConfig struct {
	NodeID      string `mapstructure:"node_id"` // пусто - берётся из EdgeStore
	TenantID    string `mapstructure:"tenant_id"`
	DBPath      string `mapstructure:"db_path"`
	ServerURL   string `mapstructure:"server_url"`
	AccessToken string `mapstructure:"access_token"`
	PolicyFile  string `mapstructure:"policy_file"`
	Online      bool   `mapstructure:"online"`
	// SyncInterval период drain в режиме daemon
	SyncInterval   time.Duration `mapstructure:"sync_interval"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// BatchSize > 1 включает drain пачками
	BatchSize int       `mapstructure:"batch_size"`
	Log       LogConfig `mapstructure:"log"`
}

// ServerConfig настройки облачного сервера
type ServerConfig struct {
	Addr       string        `mapstructure:"addr"`
	DBPath     string        `mapstructure:"db_path"`
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	RateLimit  int           `mapstructure:"rate_limit"` // запросов в окно на tenant, 0 - без ограничения
	RateWindow time.Duration `mapstructure:"rate_window"`
	Log        LogConfig     `mapstructure:"log"`
}

// minSecretLen минимальная длина секрета подписи токенов
const minSecretLen = 16

// New создает viper с переменными окружения TILLSYNC_*.
// Вложенные ключи читаются из окружения через подчёркивание: log.level - TILLSYNC_LOG_LEVEL.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile читает файл конфигурации, если путь задан. Формат определяется по расширению.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

func setLogDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
}

// SetEdgeDefaults задаёт значения по умолчанию для всех ключей edge узла.
// Ключ без значения по умолчанию не видит переменную окружения при Unmarshal.
func SetEdgeDefaults(v *viper.Viper) {
	v.SetDefault("node_id", "")
	v.SetDefault("tenant_id", "")
	v.SetDefault("db_path", "tillsync-edge.db")
	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("access_token", "")
	v.SetDefault("policy_file", "")
	v.SetDefault("online", true)
	v.SetDefault("sync_interval", 30*time.Second)
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("batch_size", 0)
	setLogDefaults(v)
}

// SetServerDefaults задаёт значения по умолчанию для всех ключей сервера
func SetServerDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("db_path", "tillsync.db")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", 0)
	v.SetDefault("rate_limit", 600)
	v.SetDefault("rate_window", time.Minute)
	setLogDefaults(v)
}

// LoadEdge собирает и проверяет конфигурацию edge узла
func LoadEdge(v *viper.Viper) (*EdgeConfig, error) {
	var cfg EdgeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode edge config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadServer собирает и проверяет конфигурацию сервера
func LoadServer(v *viper.Viper) (*ServerConfig, error) {
	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode server config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет конфигурацию edge узла
func (c *EdgeConfig) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("%w: db_path is required", ErrInvalidConfig)
	}
	if c.ServerURL == "" {
		return fmt.Errorf("%w: server_url is required", ErrInvalidConfig)
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("%w: sync_interval must be positive", ErrInvalidConfig)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("%w: batch_size must not be negative", ErrInvalidConfig)
	}
	return c.Log.Validate()
}

// Validate проверяет конфигурацию сервера
func (c *ServerConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr is required", ErrInvalidConfig)
	}
	if c.DBPath == "" {
		return fmt.Errorf("%w: db_path is required", ErrInvalidConfig)
	}
	if len(c.JWTSecret) < minSecretLen {
		return fmt.Errorf("%w: jwt_secret must be at least %d characters", ErrInvalidConfig, minSecretLen)
	}
	if c.TokenTTL < 0 {
		return fmt.Errorf("%w: token_ttl must not be negative", ErrInvalidConfig)
	}
	if c.RateLimit < 0 || (c.RateLimit > 0 && c.RateWindow <= 0) {
		return fmt.Errorf("%w: rate_limit needs a positive rate_window", ErrInvalidConfig)
	}
	return c.Log.Validate()
}

// Validate проверяет настройки логирования
func (c *LogConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Level)
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Format)
	}
	return nil
}
