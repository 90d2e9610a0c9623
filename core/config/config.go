package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ErrConfigurationMissing reports that a required secret was not provided.
var ErrConfigurationMissing = errors.New("configuration missing")

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	File        string `yaml:"file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// RateLimitConfig holds settings for per-user rate limiting.
// ExcludeUpdates accepts update types that bypass limiting: "callback", "message".
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// TriviaConfig configures the remote question source.
type TriviaConfig struct {
	BaseURL        string `yaml:"base_url" envconfig:"TRIVIA_BASE_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"TRIVIA_TIMEOUT_SECONDS"`
	MaxConcurrent  int    `yaml:"max_concurrent" envconfig:"TRIVIA_MAX_CONCURRENT"`
	Retries        int    `yaml:"retries" envconfig:"TRIVIA_RETRIES"`
}

// SessionsConfig selects where quiz sessions and conversation state live.
type SessionsConfig struct {
	Backend string `yaml:"backend" envconfig:"SESSIONS_BACKEND"`
	// TTLMinutes expires idle sessions; 0 keeps them until finished or cancelled.
	TTLMinutes int `yaml:"ttl_minutes" envconfig:"SESSIONS_TTL_MINUTES"`
}

// RedisConfig is used when sessions.backend is "redis".
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

// QuizConfig tunes the conversation presentation.
type QuizConfig struct {
	// VisibleCategories limits the category keyboard; 0 shows every category.
	VisibleCategories int `yaml:"visible_categories" envconfig:"QUIZ_VISIBLE_CATEGORIES"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"

	// BackendMemory keeps sessions in process memory.
	BackendMemory = "memory"
	// BackendRedis keeps sessions in Redis.
	BackendRedis = "redis"

	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"

	// DefaultTriviaBaseURL is the Open Trivia Database question endpoint.
	DefaultTriviaBaseURL = "https://opentdb.com/api.php"
)

// Config aggregates the whole bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Trivia    TriviaConfig    `yaml:"trivia"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Redis     RedisConfig     `yaml:"redis"`
	Quiz      QuizConfig      `yaml:"quiz"`
}

// Load reads configuration from an optional YAML file and environment variables.
// A missing file is tolerated so the bot can run from the environment alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse YAML config: %w", err)
			}
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CoreConfig lets *Config satisfy the runner's ConfigCarrier.
func (c *Config) CoreConfig() *Config {
	return c
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("%w: BOT_TOKEN is required", ErrConfigurationMissing)
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	switch rm {
	case "", "polling":
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		switch key {
		case "", UpdateCallback, UpdateMessage:
		default:
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	if strings.TrimSpace(cfg.Trivia.BaseURL) == "" {
		cfg.Trivia.BaseURL = DefaultTriviaBaseURL
	}
	if cfg.Trivia.TimeoutSeconds <= 0 {
		cfg.Trivia.TimeoutSeconds = 10
	}
	if cfg.Trivia.MaxConcurrent <= 0 {
		cfg.Trivia.MaxConcurrent = 4
	}
	if cfg.Trivia.Retries < 0 {
		return fmt.Errorf("trivia.retries must be >= 0")
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Sessions.Backend))
	switch backend {
	case "":
		backend = BackendMemory
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			return fmt.Errorf("redis.addr is required when sessions.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid sessions.backend %q; allowed: memory, redis", cfg.Sessions.Backend)
	}
	cfg.Sessions.Backend = backend
	if cfg.Sessions.TTLMinutes < 0 {
		return fmt.Errorf("sessions.ttl_minutes must be >= 0")
	}
	if cfg.Quiz.VisibleCategories < 0 {
		return fmt.Errorf("quiz.visible_categories must be >= 0")
	}
	return nil
}
