package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/notifyhub/topic-channel/internal/domain"
)

// FileConfig is the on-disk form of Config. Zero values leave the
// corresponding setting untouched.
type FileConfig struct {
	Pools struct {
		MaxProducers  int `yaml:"max_producers" json:"max_producers"`
		MaxConsumers  int `yaml:"max_consumers" json:"max_consumers"`
		MaxBufferSize int `yaml:"max_buffer_size" json:"max_buffer_size"`
	} `yaml:"pools" json:"pools"`

	Run struct {
		BatchSize    int    `yaml:"batch_size" json:"batch_size"`
		DispatchMode string `yaml:"dispatch_mode" json:"dispatch_mode"`
		ProducePace  string `yaml:"produce_pace" json:"produce_pace"`
		ConsumePace  string `yaml:"consume_pace" json:"consume_pace"`
		Timeout      string `yaml:"timeout" json:"timeout"`
		Seed         uint64 `yaml:"seed" json:"seed"`
		Count        int    `yaml:"count" json:"count"`
		Interval     string `yaml:"interval" json:"interval"`
	} `yaml:"run" json:"run"`

	HTTP struct {
		Addr string `yaml:"addr" json:"addr"`
	} `yaml:"http" json:"http"`

	Database struct {
		URL string `yaml:"url" json:"url"`
	} `yaml:"database" json:"database"`

	Delivery struct {
		Mode    string `yaml:"mode" json:"mode"`
		BaseURL string `yaml:"base_url" json:"base_url"`
		Rate    int    `yaml:"rate" json:"rate"`
	} `yaml:"delivery" json:"delivery"`
}

// LoadFile reads a YAML or JSON configuration file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc FileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	return &fc, nil
}

// Apply copies every non-zero setting of f onto cfg.
func (f *FileConfig) Apply(cfg *Config) error {
	if f.Pools.MaxProducers > 0 {
		cfg.MaxProducers = f.Pools.MaxProducers
	}
	if f.Pools.MaxConsumers > 0 {
		cfg.MaxConsumers = f.Pools.MaxConsumers
	}
	if f.Pools.MaxBufferSize > 0 {
		cfg.MaxBufferSize = f.Pools.MaxBufferSize
	}

	if f.Run.BatchSize > 0 {
		cfg.BatchSize = f.Run.BatchSize
	}
	if f.Run.DispatchMode != "" {
		cfg.DispatchMode = domain.DispatchMode(f.Run.DispatchMode)
	}
	for _, d := range []struct {
		raw string
		dst *time.Duration
		key string
	}{
		{f.Run.ProducePace, &cfg.ProducePace, "run.produce_pace"},
		{f.Run.ConsumePace, &cfg.ConsumePace, "run.consume_pace"},
		{f.Run.Timeout, &cfg.RunTimeout, "run.timeout"},
		{f.Run.Interval, &cfg.RunInterval, "run.interval"},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}
	if f.Run.Count > 0 {
		cfg.RunCount = f.Run.Count
	}
	if f.Run.Seed != 0 {
		cfg.RandomSeed = f.Run.Seed
	}

	if f.HTTP.Addr != "" {
		cfg.HTTPAddr = f.HTTP.Addr
	}
	if f.Database.URL != "" {
		cfg.DatabaseURL = f.Database.URL
	}
	if f.Delivery.Mode != "" {
		cfg.SendMode = SendMode(f.Delivery.Mode)
	}
	if f.Delivery.BaseURL != "" {
		cfg.ProviderBaseURL = f.Delivery.BaseURL
	}
	if f.Delivery.Rate > 0 {
		cfg.SendRate = f.Delivery.Rate
	}
	return nil
}
