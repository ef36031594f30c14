package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// DefaultConfigPath: путь к файлу конфигурации, если CONFIG_PATH не задан
const DefaultConfigPath = "config/config.yaml"

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Session   SessionConfig
	Email     EmailConfig
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port           string
	ReadTimeout    int      `mapstructure:"read_timeout"`  // секунды
	WriteTimeout   int      `mapstructure:"write_timeout"` // секунды
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig содержит настройки подключения к Redis.
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	Mode     string   `mapstructure:"mode"`
	Addrs    []string `mapstructure:"addrs"`
	Addr     string   `mapstructure:"addr"` // используется в режиме single, если Addrs пуст
	Password string   `mapstructure:"password"`
	DB       int      `mapstructure:"db"`

	MasterName string `mapstructure:"master_name"` // только для sentinel

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // миллисекунды
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // миллисекунды
}

// JWTConfig содержит настройки JWT
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expirationHrs"`
}

// SessionConfig содержит настройки прохождения тестов
type SessionConfig struct {
	TickIntervalMs      int  `mapstructure:"tick_interval_ms"`
	QuestionCacheTTLSec int  `mapstructure:"question_cache_ttl_sec"`
	SubmitTimeoutSec    int  `mapstructure:"submit_timeout_sec"`
	SendResultEmail     bool `mapstructure:"send_result_email"`
}

// EmailConfig содержит настройки отправки писем через Resend
type EmailConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
}

// RateLimitConfig содержит ограничения на вход и регистрацию
type RateLimitConfig struct {
	AuthMaxRequests int `mapstructure:"auth_max_requests"`
	AuthWindowSec   int `mapstructure:"auth_window_sec"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// PostgresURL формирует URL подключения для golang-migrate
func (d *DatabaseConfig) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// TickInterval возвращает интервал тика таймера
func (s SessionConfig) TickInterval() time.Duration {
	return time.Duration(s.TickIntervalMs) * time.Millisecond
}

// QuestionCacheTTL возвращает время жизни кеша вопросов
func (s SessionConfig) QuestionCacheTTL() time.Duration {
	return time.Duration(s.QuestionCacheTTLSec) * time.Second
}

// SubmitTimeout возвращает таймаут записи попытки
func (s SessionConfig) SubmitTimeout() time.Duration {
	return time.Duration(s.SubmitTimeoutSec) * time.Second
}

// AuthWindow возвращает окно ограничения запросов авторизации
func (r RateLimitConfig) AuthWindow() time.Duration {
	return time.Duration(r.AuthWindowSec) * time.Second
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 15)
	vip.SetDefault("server.write_timeout", 30)
	vip.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")

	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.addr", "localhost:6379")

	vip.SetDefault("jwt.expirationHrs", 24)

	vip.SetDefault("session.tick_interval_ms", 1000)
	vip.SetDefault("session.question_cache_ttl_sec", 600)
	vip.SetDefault("session.submit_timeout_sec", 10)
	vip.SetDefault("session.send_result_email", false)

	vip.SetDefault("email.enabled", false)

	vip.SetDefault("rate_limit.auth_max_requests", 10)
	vip.SetDefault("rate_limit.auth_window_sec", 60)
}

func bindEnv(vip *viper.Viper) {
	bindings := map[string]string{
		"server.port":            "SERVER_PORT",
		"server.allowed_origins": "SERVER_ALLOWED_ORIGINS",

		"database.host":     "DATABASE_HOST",
		"database.port":     "DATABASE_PORT",
		"database.user":     "DATABASE_USER",
		"database.password": "DATABASE_PASSWORD",
		"database.dbname":   "DATABASE_DBNAME",
		"database.sslmode":  "DATABASE_SSLMODE",

		"redis.mode":        "REDIS_MODE",
		"redis.addrs":       "REDIS_ADDRS",
		"redis.addr":        "REDIS_ADDR",
		"redis.password":    "REDIS_PASSWORD",
		"redis.db":          "REDIS_DB",
		"redis.master_name": "REDIS_MASTER_NAME",

		"jwt.secret":        "JWT_SECRET",
		"jwt.expirationHrs": "JWT_EXPIRATIONHRS",

		"session.tick_interval_ms":       "SESSION_TICK_INTERVAL_MS",
		"session.question_cache_ttl_sec": "SESSION_QUESTION_CACHE_TTL_SEC",
		"session.submit_timeout_sec":     "SESSION_SUBMIT_TIMEOUT_SEC",
		"session.send_result_email":      "SESSION_SEND_RESULT_EMAIL",

		"email.enabled":        "EMAIL_ENABLED",
		"email.resend_api_key": "RESEND_API_KEY",
		"email.from":           "EMAIL_FROM",

		"rate_limit.auth_max_requests": "RATE_LIMIT_AUTH_MAX_REQUESTS",
		"rate_limit.auth_window_sec":   "RATE_LIMIT_AUTH_WINDOW_SEC",
	}
	for key, env := range bindings {
		_ = vip.BindEnv(key, env)
	}
}

// Load загружает конфигурацию: .env, затем файл, затем переменные окружения
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("[Config] Не удалось прочитать .env")
	}

	vip := viper.New()
	setDefaults(vip)
	bindEnv(vip)

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	vip.SetConfigFile(configPath)
	if err := vip.ReadInConfig(); err != nil {
		// Файл необязателен: все ключи можно задать через окружение
		log.Warn().Err(err).Str("path", configPath).Msg("[Config] Файл конфигурации не прочитан, используются переменные окружения")
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Debug().
			Str("dbHost", cfg.Database.Host).
			Str("dbName", cfg.Database.DBName).
			Str("redisMode", cfg.Redis.Mode).
			Str("port", cfg.Server.Port).
			Int("tickMs", cfg.Session.TickIntervalMs).
			Bool("emailEnabled", cfg.Email.Enabled).
			Msg("[Config] Конфигурация загружена")
	}

	return &cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required (check JWT_SECRET env var)")
	}
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return errors.New("database configuration (host, dbname, user) is incomplete (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if c.JWT.ExpirationHrs <= 0 {
		return fmt.Errorf("jwt expiration must be positive, got %d", c.JWT.ExpirationHrs)
	}
	if c.Session.TickIntervalMs <= 0 || c.Session.SubmitTimeoutSec <= 0 {
		return errors.New("session tick interval and submit timeout must be positive")
	}
	if c.Email.Enabled && (c.Email.ResendAPIKey == "" || c.Email.From == "") {
		return errors.New("email is enabled but RESEND_API_KEY or EMAIL_FROM is not set")
	}
	return nil
}
