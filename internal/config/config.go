package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port         int
	MasterSecret string
	GinMode      string
	TLSCertFile  string
	TLSKeyFile   string

	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	StateFile    string
	SeedDemoData bool

	HeartbeatInterval time.Duration
	DedupLoginEvents  bool
}

type Env interface {
	Getenv(key string) string
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

func LoadConfig() (Config, error) {
	return LoadConfigFromEnv(osEnv{})
}

func LoadConfigFromEnv(env Env) (Config, error) {
	cfg := Config{
		Port:               8000,
		GinMode:            "release",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		HeartbeatInterval:  30 * time.Second,
	}

	if raw := env.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT")
		}
		cfg.Port = port
	}

	cfg.MasterSecret = env.Getenv("MASTER_SECRET")
	if cfg.MasterSecret == "" {
		return Config{}, fmt.Errorf("MASTER_SECRET is required")
	}

	if raw := env.Getenv("GIN_MODE"); raw != "" {
		cfg.GinMode = raw
	}

	cfg.TLSCertFile = env.Getenv("TLS_CERT_FILE")
	cfg.TLSKeyFile = env.Getenv("TLS_KEY_FILE")

	if raw := env.Getenv("ACCESS_TOKEN_EXPIRY_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("invalid ACCESS_TOKEN_EXPIRY_SECONDS")
		}
		cfg.AccessTokenExpiry = time.Duration(seconds) * time.Second
	}

	if raw := env.Getenv("REFRESH_TOKEN_EXPIRY_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("invalid REFRESH_TOKEN_EXPIRY_SECONDS")
		}
		cfg.RefreshTokenExpiry = time.Duration(seconds) * time.Second
	}

	cfg.StateFile = env.Getenv("STATE_FILE")
	cfg.SeedDemoData = env.Getenv("SEED_DEMO_DATA") == "true"

	if raw := env.Getenv("RELAY_HEARTBEAT_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds < 0 {
			return Config{}, fmt.Errorf("invalid RELAY_HEARTBEAT_SECONDS")
		}
		cfg.HeartbeatInterval = time.Duration(seconds) * time.Second
	}

	cfg.DedupLoginEvents = env.Getenv("RELAY_DEDUP_LOGIN") == "true"

	return cfg, nil
}
