// Package config loads server configuration from an optional YAML file with
// environment-variable overrides on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Arena       ArenaConfig       `yaml:"arena"`
	Stake       StakeConfig       `yaml:"stake"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
}

type ServerConfig struct {
	Port      string `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
	LogLevel  string `yaml:"log_level"`
}

// ArenaConfig carries the gameplay timers in seconds.
type ArenaConfig struct {
	ConfirmWindowSec    int `yaml:"confirm_window_sec"`
	GameDurationSec     int `yaml:"game_duration_sec"`
	PostGameCooldownSec int `yaml:"post_game_cooldown_sec"`
	WinThreshold        int `yaml:"win_threshold"`
	DetectEvery         int `yaml:"detect_every"`
}

type StakeConfig struct {
	Enabled      bool   `yaml:"enabled"`
	RPCURL       string `yaml:"rpc_url"`
	HouseKeyFile string `yaml:"house_key_file"`
}

type LeaderboardConfig struct {
	Path string `yaml:"path"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:      "8080",
			StaticDir: "static",
			LogLevel:  "info",
		},
		Arena: ArenaConfig{
			ConfirmWindowSec:    120,
			GameDurationSec:     60,
			PostGameCooldownSec: 3,
			WinThreshold:        50,
			DetectEvery:         3,
		},
		Stake: StakeConfig{
			Enabled:      false,
			RPCURL:       "https://api.devnet.solana.com",
			HouseKeyFile: "house_key.json",
		},
		Leaderboard: LeaderboardConfig{
			Path: "leaderboard.db",
		},
	}
}

// Load reads the YAML file at path if it exists, then applies environment
// overrides. A missing file is not an error; defaults cover everything.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.StaticDir = getEnv("STATIC_DIR", cfg.Server.StaticDir)
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", cfg.Server.LogLevel)
	cfg.Arena.ConfirmWindowSec = getEnvAsInt("CONFIRM_WINDOW_SEC", cfg.Arena.ConfirmWindowSec)
	cfg.Arena.GameDurationSec = getEnvAsInt("GAME_DURATION_SEC", cfg.Arena.GameDurationSec)
	cfg.Arena.WinThreshold = getEnvAsInt("WIN_THRESHOLD", cfg.Arena.WinThreshold)
	cfg.Stake.Enabled = getEnvAsBool("STAKE_ENABLED", cfg.Stake.Enabled)
	cfg.Stake.RPCURL = getEnv("SOLANA_RPC_URL", cfg.Stake.RPCURL)
	cfg.Stake.HouseKeyFile = getEnv("HOUSE_KEY_FILE", cfg.Stake.HouseKeyFile)
	cfg.Leaderboard.Path = getEnv("LEADERBOARD_PATH", cfg.Leaderboard.Path)

	return &cfg, nil
}

func (c ArenaConfig) ConfirmWindow() time.Duration {
	return time.Duration(c.ConfirmWindowSec) * time.Second
}

func (c ArenaConfig) GameDuration() time.Duration {
	return time.Duration(c.GameDurationSec) * time.Second
}

func (c ArenaConfig) PostGameCooldown() time.Duration {
	return time.Duration(c.PostGameCooldownSec) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
