package main

import (
	"fmt"
	"time"

	"github.com/omeyang/xfilestore/internal/autopurge"
	"github.com/omeyang/xfilestore/pkg/config/xconf"
	"github.com/omeyang/xfilestore/pkg/storage/xfilestore"
)

// Config 配置文件结构，见 configs/xfsctl.yaml。
type Config struct {
	Store     StoreConfig      `koanf:"store"`
	Log       LogConfig        `koanf:"log"`
	HTTP      HTTPConfig       `koanf:"http"`
	AutoPurge autopurge.Config `koanf:"autopurge"`
	Metrics   MetricsConfig    `koanf:"metrics"`
}

// StoreConfig 存储配置。
type StoreConfig struct {
	Root           string        `koanf:"root"`
	MaxSpace       int64         `koanf:"max_space"`
	InitialBuckets int           `koanf:"initial_buckets"`
	LoadFactor     int           `koanf:"load_factor"`
	SweepDelay     time.Duration `koanf:"sweep_delay"`
	SweepPeriod    time.Duration `koanf:"sweep_period"`
}

// LogConfig 日志配置。File 非空时写入文件并按大小轮转。
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	File   string `koanf:"file"`
}

// HTTPConfig serve 命令的监听配置。
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// MetricsConfig serve 命令的指标配置。Enabled 时存储上报 OpenTelemetry 指标，
// 并通过 GET /v1/metrics 输出快照。
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

func defaultConfig() Config {
	return Config{
		Store: StoreConfig{
			InitialBuckets: xfilestore.DefaultInitialBuckets,
			LoadFactor:     xfilestore.DefaultLoadFactor,
			SweepDelay:     xfilestore.DefaultSweepDelay,
			SweepPeriod:    xfilestore.DefaultSweepPeriod,
		},
		Log: LogConfig{Level: "info", Format: "text"},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		AutoPurge: autopurge.Config{HighWatermark: 90, Percent: 10},
		Metrics:   MetricsConfig{Enabled: true},
	}
}

// loadConfig 读取配置文件并覆盖默认值，path 为空时只返回默认值。
func loadConfig(path string) (Config, xconf.Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil, nil
	}
	src, err := xconf.New(path)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := src.Unmarshal("", &cfg); err != nil {
		return cfg, nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, src, nil
}

// storeOptions 将配置转换为 Open 选项。
func (c StoreConfig) storeOptions() []xfilestore.Option {
	return []xfilestore.Option{
		xfilestore.WithInitialBuckets(c.InitialBuckets),
		xfilestore.WithLoadFactor(c.LoadFactor),
		xfilestore.WithSweepDelay(c.SweepDelay),
		xfilestore.WithSweepPeriod(c.SweepPeriod),
	}
}
