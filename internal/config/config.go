// Package config provides command line defaults from the environment
// and an optional .env file.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/524D/breathx/internal/logger"
	"github.com/524D/breathx/internal/peak"
)

// Environment variables that override the built-in defaults
const (
	EnvWorkers  = "BREATHX_WORKERS"
	EnvSeed     = "BREATHX_SEED"
	EnvMethod   = "BREATHX_METHOD"
	EnvLogLevel = "BREATHX_LOG_LEVEL"
)

// Defaults are the default values of command line flags
type Defaults struct {
	Workers  int
	Seed     uint64
	Method   peak.Method
	LogLevel zapcore.Level
	// DotEnvErr is set when no .env file could be read
	DotEnvErr error
}

// Load returns the defaults. Variables set in the environment take
// precedence over those in the .env files (default ".env"); an
// unreadable .env file is not an error. Empty values are ignored.
func Load(files ...string) (Defaults, error) {
	d := Defaults{
		Workers:  runtime.NumCPU(),
		Method:   peak.Topological,
		LogLevel: zapcore.InfoLevel,
	}
	dotEnv, err := godotenv.Read(files...)
	if err != nil {
		d.DotEnvErr = err
	}
	get := func(key string) string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
		return dotEnv[key]
	}

	if v := get(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return d, fmt.Errorf("%s=%q: must be a positive integer", EnvWorkers, v)
		}
		d.Workers = n
	}
	if v := get(EnvSeed); v != "" {
		if d.Seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			return d, fmt.Errorf("%s=%q: %w", EnvSeed, v, err)
		}
	}
	if v := get(EnvMethod); v != "" {
		if d.Method, err = peak.ParseMethod(v); err != nil {
			return d, fmt.Errorf("%s: %w", EnvMethod, err)
		}
	}
	if v := get(EnvLogLevel); v != "" {
		if d.LogLevel, err = logger.ParseLevel(v); err != nil {
			return d, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
	}
	return d, nil
}
