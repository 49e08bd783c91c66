package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"ticker-plant/infrastructure/logger"
	"ticker-plant/source"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Source      string         `yaml:"source"`
	Sinks       []SinkConfig   `yaml:"sinks"`
	Log         logger.Config  `yaml:"log"`
	MetricsAddr string         `yaml:"metricsAddr"`
	Progress    ProgressConfig `yaml:"progress"`
	Feed        FeedConfig     `yaml:"feed"`
	NATS        NATSConfig     `yaml:"nats"`
	Influx      InfluxConfig   `yaml:"influx"`
}

// SinkConfig 一个记录端：type:path，可选只保留 trades 或 quotes。
type SinkConfig struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
	Only string `yaml:"only"`
}

type ProgressConfig struct {
	Every uint64 `yaml:"every"` // 每 N 个 tick 打一条进度日志，0 关闭
}

// FeedConfig 只作用于实时源。
type FeedConfig struct {
	PongWaitMs int      `yaml:"pongWaitMs"`
	ReadLimit  int64    `yaml:"readLimit"`
	Subscribe  []string `yaml:"subscribe"`
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type InfluxConfig struct {
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	Org         string `yaml:"org"`
	Measurement string `yaml:"measurement"`
}

const (
	SinkFlat   = "flat"
	SinkLDB    = "ldb"
	SinkLog    = "log"
	SinkNATS   = "nats"
	SinkInflux = "influx"
)

// Default 返回可直接运行的配置：默认实时源，无记录端。
func Default() AppConfig {
	return AppConfig{
		Source:   source.DefaultPath,
		Log:      logger.DefaultConfig(),
		Progress: ProgressConfig{Every: 10000},
		NATS:     NATSConfig{URL: "nats://127.0.0.1:4222"},
		Influx:   InfluxConfig{Measurement: "ticks"},
	}
}

// Load reads YAML config from path over Default and applies validation.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	// 写入中途被截断的文件不能当作全默认配置
	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, errors.New("config file is empty")
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	ApplyEnv(&cfg)
	return cfg, Validate(cfg)
}

// ApplyEnv 用环境变量覆盖配置（TP_SOURCE / TP_NATS_URL / TP_INFLUX_TOKEN / TP_LOG_LEVEL）。
func ApplyEnv(cfg *AppConfig) {
	if v := os.Getenv("TP_SOURCE"); v != "" {
		cfg.Source = v
	}
	if v := os.Getenv("TP_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("TP_INFLUX_TOKEN"); v != "" {
		cfg.Influx.Token = v
	}
	if v := os.Getenv("TP_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate ensures the source and every sink are well formed.
func Validate(cfg AppConfig) error {
	if _, err := source.ParsePath(cfg.Source); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	for i, s := range cfg.Sinks {
		if err := validateSink(s); err != nil {
			return fmt.Errorf("sinks[%d]: %w", i, err)
		}
		switch s.Type {
		case SinkNATS:
			if cfg.NATS.URL == "" {
				return errors.New("nats.url is required for nats sink")
			}
		case SinkInflux:
			if cfg.Influx.URL == "" || cfg.Influx.Org == "" {
				return errors.New("influx.url/org is required for influx sink")
			}
		}
	}
	if cfg.Feed.PongWaitMs < 0 || cfg.Feed.ReadLimit < 0 {
		return errors.New("feed.pongWaitMs/readLimit must be >= 0")
	}
	return nil
}

func validateSink(s SinkConfig) error {
	switch s.Type {
	case SinkFlat, SinkLDB, SinkNATS, SinkInflux:
		if s.Path == "" {
			return ErrInvalid(s.Type + " sink requires a path")
		}
	case SinkLog:
	default:
		return ErrInvalid(fmt.Sprintf("unknown sink type %q", s.Type))
	}
	switch s.Only {
	case "", "trades", "quotes":
	default:
		return ErrInvalid(fmt.Sprintf("only must be trades or quotes, got %q", s.Only))
	}
	return nil
}

// ParseSink 解析命令行的 "type:path" 或 "type:path:only"。log 可以不带 path。
func ParseSink(arg string) (SinkConfig, error) {
	arg = strings.TrimSpace(arg)
	typ, rest, _ := strings.Cut(arg, ":")
	s := SinkConfig{Type: strings.ToLower(typ), Path: rest}
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		if only := rest[i+1:]; only == "trades" || only == "quotes" {
			s.Path, s.Only = rest[:i], only
		}
	}
	if err := validateSink(s); err != nil {
		return SinkConfig{}, fmt.Errorf("sink %q: %w", arg, err)
	}
	return s, nil
}

// ErrInvalid 用于参数验证错误。
type ErrInvalid string

func (e ErrInvalid) Error() string { return string(e) }
