package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Dataset and lookup tables.
	DataPath          string // local file or http(s) URL
	FetchTimeout      time.Duration
	ClickMapPath      string
	CountyNamesPath   string
	AlertColorsPath   string
	MapWidth          int
	MapHeight         int
	SnapshotCacheSize int

	// Playback.
	SliderMax    int
	InitialSpeed int

	// Kafka paint sink.
	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaPaintTopic string
	KafkaTimeout    time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	kafkaTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("KAFKA_TIMEOUT", "5s"))
	if err != nil || kafkaTimeout <= 0 {
		return nil, errors.New("invalid KAFKA_TIMEOUT")
	}

	fetchTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("DATA_FETCH_TIMEOUT", "30s"))
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid DATA_FETCH_TIMEOUT")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataPath:        sharedcfg.EnvOrDefault("DATA_PATH", "data/weather.dat"),
		FetchTimeout:    fetchTimeout,
		ClickMapPath:    os.Getenv("CLICK_MAP_PATH"),
		CountyNamesPath: os.Getenv("COUNTY_NAMES_PATH"),
		AlertColorsPath: os.Getenv("ALERT_COLORS_PATH"),

		KafkaEnabled:    os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaPaintTopic: sharedcfg.EnvOrDefault("KAFKA_PAINT_TOPIC", "alert-map-paint"),
		KafkaTimeout:    kafkaTimeout,
	}

	for _, f := range []struct {
		key string
		def int
		dst *int
	}{
		{"MAP_WIDTH", 960, &cfg.MapWidth},
		{"MAP_HEIGHT", 600, &cfg.MapHeight},
		{"SNAPSHOT_CACHE_SIZE", 256, &cfg.SnapshotCacheSize},
		{"SLIDER_MAX", 1000, &cfg.SliderMax},
		{"INITIAL_SPEED", 3, &cfg.InitialSpeed},
	} {
		v, err := parseInt(f.key, f.def)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	if cfg.DataPath == "" {
		return nil, errors.New("DATA_PATH is required")
	}
	if cfg.MapWidth <= 0 || cfg.MapHeight <= 0 {
		return nil, errors.New("MAP_WIDTH and MAP_HEIGHT must be positive")
	}
	if cfg.SliderMax < 2 {
		return nil, errors.New("SLIDER_MAX must be at least 2")
	}
	if cfg.InitialSpeed < 0 || cfg.InitialSpeed > 4 {
		return nil, errors.New("INITIAL_SPEED must be between 0 and 4")
	}
	if cfg.SnapshotCacheSize < 0 {
		return nil, errors.New("SNAPSHOT_CACHE_SIZE must not be negative")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaPaintTopic == "" {
		return nil, errors.New("KAFKA_PAINT_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
