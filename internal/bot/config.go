package bot

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "quizbot/core/config"
	coredatabase "quizbot/core/database"
	"quizbot/internal/engine"
)

const defaultSessionTTLMinutes = 30

// SessionConfig tunes the in-memory dialogue store.
type SessionConfig struct {
	TTLMinutes int `yaml:"ttl_minutes" envconfig:"SESSION_TTL_MINUTES"`
}

// QuizConfig tunes listing layout and delivery pacing. Zero values
// keep the engine defaults.
type QuizConfig struct {
	PageSize          int `yaml:"page_size" envconfig:"QUIZ_PAGE_SIZE"`
	OpenPeriodSeconds int `yaml:"open_period_seconds" envconfig:"QUIZ_OPEN_PERIOD_SECONDS"`
	CountdownStepMS   int `yaml:"countdown_step_ms" envconfig:"QUIZ_COUNTDOWN_STEP_MS"`
	ReviewThrottleMS  int `yaml:"review_throttle_ms" envconfig:"QUIZ_REVIEW_THROTTLE_MS"`
}

// Config aggregates core bot settings with quizbot-specific sections.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Session  SessionConfig       `yaml:"session"`
	Quiz     QuizConfig          `yaml:"quiz"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Core
}

// SessionTTL returns the idle timeout for dialogue sessions.
func (c *Config) SessionTTL() time.Duration {
	minutes := c.Session.TTLMinutes
	if minutes <= 0 {
		minutes = defaultSessionTTLMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// EngineOptions converts the quiz section into engine tuning.
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		PageSize:       c.Quiz.PageSize,
		OpenPeriod:     c.Quiz.OpenPeriodSeconds,
		CountdownStep:  time.Duration(c.Quiz.CountdownStepMS) * time.Millisecond,
		ReviewThrottle: time.Duration(c.Quiz.ReviewThrottleMS) * time.Millisecond,
	}
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	return &cfg, nil
}
