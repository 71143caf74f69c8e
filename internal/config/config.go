package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/themobileprof/symptomcheck/internal/chat"
	"github.com/themobileprof/symptomcheck/internal/db"
	"github.com/themobileprof/symptomcheck/internal/dialogue"
	"github.com/themobileprof/symptomcheck/internal/model"
	"github.com/themobileprof/symptomcheck/internal/scoring"
	"github.com/themobileprof/symptomcheck/internal/session"
)

// Config is the process configuration, read from the environment with an
// optional YAML tuning file on top.
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	KnowledgePath  string
	ModelPath      string
	DatasetPath    string
	TrainOnStart   bool
	DatabaseURL    string
	AllowedOrigins []string
	RatePerMinute  float64
	RateBurst      int
	SessionIdle    time.Duration
	MaxTurns       int
	TuningPath     string
	Tuning         Tuning
}

// Tuning holds the assessment knobs
type Tuning struct {
	Severity        session.Thresholds `yaml:"severity"`
	ConfidenceFloor float64            `yaml:"confidence_floor"`
	TopK            int                `yaml:"top_k"`
	Dialogue        dialogue.Config    `yaml:"dialogue"`
	Training        model.Options      `yaml:"training"`
	Breaker         BreakerTuning      `yaml:"breaker"`
}

// BreakerTuning configures the statistical-path circuit breaker
type BreakerTuning struct {
	Failures int           `yaml:"failures"`
	Reset    time.Duration `yaml:"reset"`
}

// DefaultTuning returns the stock assessment settings
func DefaultTuning() Tuning {
	return Tuning{
		Severity:        session.DefaultThresholds,
		ConfidenceFloor: scoring.DefaultConfidenceFloor,
		TopK:            scoring.DefaultTopK,
		Dialogue:        dialogue.DefaultConfig,
		Training:        model.DefaultOptions,
		Breaker:         BreakerTuning{Failures: 3, Reset: time.Minute},
	}
}

// LoadDotEnv reads a .env file when present. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "release"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		KnowledgePath:  getEnv("KNOWLEDGE_PATH", ""),
		ModelPath:      getEnv("MODEL_PATH", "data/model.json"),
		DatasetPath:    getEnv("DATASET_PATH", ""),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		TuningPath:     getEnv("TUNING_PATH", ""),
		Tuning:         DefaultTuning(),
	}

	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		return nil, fmt.Errorf("GIN_MODE must be debug, release or test, got %q", cfg.GinMode)
	}

	var err error
	if cfg.TrainOnStart, err = getEnvBool("TRAIN_ON_START", false); err != nil {
		return nil, err
	}
	if cfg.RatePerMinute, err = getEnvFloat("RATE_LIMIT_PER_MINUTE", 100); err != nil {
		return nil, err
	}
	if cfg.RateBurst, err = getEnvInt("RATE_LIMIT_BURST", 200); err != nil {
		return nil, err
	}
	if cfg.SessionIdle, err = getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.MaxTurns, err = getEnvInt("SESSION_MAX_TURNS", session.DefaultTranscriptSize); err != nil {
		return nil, err
	}

	if cfg.TuningPath != "" {
		t, err := LoadTuning(cfg.TuningPath)
		if err != nil {
			return nil, err
		}
		cfg.Tuning = t
	}
	return cfg, nil
}

// LoadTuning reads a YAML tuning file. Keys not present keep their defaults.
func LoadTuning(path string) (Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("failed to read tuning file: %w", err)
	}
	return ParseTuning(data)
}

// ParseTuning decodes YAML over DefaultTuning and validates the result
func ParseTuning(data []byte) (Tuning, error) {
	t := DefaultTuning()
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("invalid tuning file: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, err
	}
	return t, nil
}

// Validate checks the tuning values are usable
func (t Tuning) Validate() error {
	switch {
	case t.Severity.MildBelow <= 0 || t.Severity.ModerateBelow <= t.Severity.MildBelow:
		return fmt.Errorf("severity thresholds must satisfy 0 < mild_below < moderate_below")
	case t.ConfidenceFloor < 0 || t.ConfidenceFloor >= 1:
		return fmt.Errorf("confidence_floor must be in [0, 1)")
	case t.TopK < 1:
		return fmt.Errorf("top_k must be at least 1")
	case t.Dialogue.FollowUpConfidence < 0 || t.Dialogue.FollowUpConfidence > 1:
		return fmt.Errorf("dialogue.follow_up_confidence must be in [0, 1]")
	}
	return nil
}

// EngineOptions maps the configuration onto chat engine options
func (c *Config) EngineOptions(history chat.HistoryStore, logger *zap.Logger) chat.Options {
	return chat.Options{
		Thresholds:      c.Tuning.Severity,
		ConfidenceFloor: c.Tuning.ConfidenceFloor,
		TopK:            c.Tuning.TopK,
		Dialogue:        c.Tuning.Dialogue,
		MaxTurns:        c.MaxTurns,
		BreakerFailures: c.Tuning.Breaker.Failures,
		BreakerReset:    c.Tuning.Breaker.Reset,
		History:         history,
		Logger:          logger,
	}
}

// DB returns the history database settings
func (c *Config) DB() db.Config {
	return db.Config{
		URL:             c.DatabaseURL,
		MaxConnections:  10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// HistoryEnabled reports whether a history database is configured
func (c *Config) HistoryEnabled() bool {
	return c.DatabaseURL != ""
}

// NewLogger builds a production zap logger at the configured level
func NewLogger(level string) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if err := zc.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return zc.Build()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
