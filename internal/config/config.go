package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/notifyhub/topic-channel/internal/domain"
)

// SendMode selects what consumers do with a topic after taking it.
type SendMode string

const (
	SendNone    SendMode = "none"
	SendStub    SendMode = "stub"
	SendWebhook SendMode = "webhook"
)

// Config holds all runtime configuration.
// Values come from Defaults, then an optional CONFIG_FILE, then environment
// variables, each layer overriding the previous one.
type Config struct {
	// Pool sizing bounds; each run draws its sizes in [1, bound].
	MaxProducers  int
	MaxConsumers  int
	MaxBufferSize int

	// BatchSize is the number of topics produced per run; 0 uses the queue capacity.
	BatchSize    int
	DispatchMode domain.DispatchMode

	ProducePace time.Duration
	ConsumePace time.Duration
	RunTimeout  time.Duration

	// RunCount of 0 repeats runs until a signal arrives.
	RunCount    int
	RunInterval time.Duration

	// RandomSeed of 0 seeds from the clock.
	RandomSeed uint64

	// HTTP (empty HTTPAddr disables the server)
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Run history (empty DatabaseURL keeps history in memory)
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Outbound delivery
	SendMode        SendMode
	ProviderBaseURL string
	ProviderTimeout time.Duration
	SendRate        int

	LogFormat string
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		MaxProducers:  8,
		MaxConsumers:  8,
		MaxBufferSize: 32,

		BatchSize:    0,
		DispatchMode: domain.DispatchRoundRobin,

		ProducePace: 500 * time.Millisecond,
		ConsumePace: 500 * time.Millisecond,
		RunTimeout:  5 * time.Second,
		RunCount:    1,

		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 5 * time.Second,

		DBMaxConns: 4,
		DBMinConns: 1,

		SendMode:        SendNone,
		ProviderTimeout: 10 * time.Second,
		SendRate:        100,

		LogFormat: "json",
	}
}

func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fc, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := fc.Apply(cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	cfg.MaxProducers = getInt("MAX_PRODUCERS", cfg.MaxProducers)
	cfg.MaxConsumers = getInt("MAX_CONSUMERS", cfg.MaxConsumers)
	cfg.MaxBufferSize = getInt("MAX_BUFFER_SIZE", cfg.MaxBufferSize)
	cfg.BatchSize = getInt("BATCH_SIZE", cfg.BatchSize)
	cfg.DispatchMode = domain.DispatchMode(getEnv("DISPATCH_MODE", string(cfg.DispatchMode)))

	cfg.ProducePace = getDuration("PRODUCE_PACE", cfg.ProducePace)
	cfg.ConsumePace = getDuration("CONSUME_PACE", cfg.ConsumePace)
	cfg.RunTimeout = getDuration("RUN_TIMEOUT", cfg.RunTimeout)
	cfg.RunCount = getInt("RUN_COUNT", cfg.RunCount)
	cfg.RunInterval = getDuration("RUN_INTERVAL", cfg.RunInterval)
	cfg.RandomSeed = getUint64("RANDOM_SEED", cfg.RandomSeed)

	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.ReadTimeout = getDuration("READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getDuration("WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.ShutdownTimeout = getDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DBMaxConns = int32(getInt("DB_MAX_CONNS", int(cfg.DBMaxConns)))
	cfg.DBMinConns = int32(getInt("DB_MIN_CONNS", int(cfg.DBMinConns)))

	cfg.SendMode = SendMode(getEnv("SEND_MODE", string(cfg.SendMode)))
	cfg.ProviderBaseURL = getEnv("PROVIDER_BASE_URL", cfg.ProviderBaseURL)
	cfg.ProviderTimeout = getDuration("PROVIDER_TIMEOUT", cfg.ProviderTimeout)
	cfg.SendRate = getInt("SEND_RATE", cfg.SendRate)

	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the orchestrator cannot run with.
func (c *Config) Validate() error {
	if c.MaxProducers < 1 || c.MaxConsumers < 1 || c.MaxBufferSize < 1 {
		return fmt.Errorf("MAX_PRODUCERS, MAX_CONSUMERS and MAX_BUFFER_SIZE must be at least 1")
	}
	if c.BatchSize < 0 {
		return domain.ErrInvalidBatch
	}
	if !c.DispatchMode.IsValid() {
		return domain.ErrInvalidDispatch
	}
	if c.ProducePace < 0 || c.ConsumePace < 0 {
		return fmt.Errorf("pacing delays must not be negative")
	}
	if c.RunTimeout <= 0 {
		return fmt.Errorf("RUN_TIMEOUT must be positive")
	}
	if c.RunCount < 0 || c.RunInterval < 0 {
		return fmt.Errorf("RUN_COUNT and RUN_INTERVAL must not be negative")
	}
	switch c.SendMode {
	case SendNone, SendStub:
	case SendWebhook:
		if c.ProviderBaseURL == "" {
			return fmt.Errorf("PROVIDER_BASE_URL is required when SEND_MODE=webhook")
		}
		if c.SendRate < 1 {
			return fmt.Errorf("SEND_RATE must be at least 1")
		}
	default:
		return fmt.Errorf("unknown SEND_MODE %q", c.SendMode)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getUint64(key string, defaultVal uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
