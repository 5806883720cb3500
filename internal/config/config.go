// Package config loads daemon configuration from .env files and the
// environment, the way yetaxyz-oracle and aman-zulfiqar-solana-swap-indexer
// both load configuration with github.com/joho/godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads a .env file if present (missing file is not an error — the
// process may be configured purely through the environment, e.g. in a
// container) and returns nothing; callers then read individual fields with
// the helpers below.
func Load(envFile string) {
	_ = godotenv.Load(envFile) // ignore: absent .env is not fatal
}

// Shared holds the configuration fields common to all three daemons.
type Shared struct {
	RPCURL       string        // SVM RPC endpoint
	ProgramID    string        // base58 program id
	StatePDA     string        // base58 state account address, if pre-derived
	AssetCount   int
	SlotCount    int
	Decimals     uint8
	PollInterval time.Duration
}

// StringEnv returns the environment variable value, or def if unset/empty.
func StringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// DurationEnv parses a millisecond integer environment variable.
func DurationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// IntEnv parses an integer environment variable.
func IntEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return n, nil
}

// BoolEnv parses a boolean environment variable ("1","true","yes" => true).
func BoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
