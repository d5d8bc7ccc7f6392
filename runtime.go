package rustscript

import (
	"fmt"
	"sync"
)

type RuntimeConfig struct {
	// MaxCallDepth bounds nested function calls; exceeding it fails with
	// ErrCodeStackOverflow.
	MaxCallDepth int
	// MaxExpressionDepth bounds parser nesting.
	MaxExpressionDepth int
	// ImportCacheSize is the number of parsed import files kept in memory.
	// Zero disables the cache.
	ImportCacheSize int64
	LogEvaluation   bool
}

var (
	runtimeConfigMu sync.RWMutex
	runtimeConfig   = DefaultRuntimeConfig()
)

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		MaxCallDepth:       10000,
		MaxExpressionDepth: 512,
		ImportCacheSize:    256,
		LogEvaluation:      false,
	}
}

// Validate rejects limits that would leave recursion or parser nesting
// unbounded.
func (cfg RuntimeConfig) Validate() error {
	if cfg.MaxCallDepth <= 0 {
		return fmt.Errorf("max call depth must be positive, got %d", cfg.MaxCallDepth)
	}
	if cfg.MaxExpressionDepth <= 0 {
		return fmt.Errorf("max expression depth must be positive, got %d", cfg.MaxExpressionDepth)
	}
	if cfg.ImportCacheSize < 0 {
		return fmt.Errorf("import cache size must not be negative, got %d", cfg.ImportCacheSize)
	}
	return nil
}

func SetRuntimeConfig(cfg RuntimeConfig) {
	runtimeConfigMu.Lock()
	defer runtimeConfigMu.Unlock()
	runtimeConfig = cfg
}

func GetRuntimeConfig() RuntimeConfig {
	runtimeConfigMu.RLock()
	defer runtimeConfigMu.RUnlock()
	return runtimeConfig
}

// RuntimeConfigOverride replaces the non-nil fields of the process-wide
// config for a single interpreter.
type RuntimeConfigOverride struct {
	MaxCallDepth       *int
	MaxExpressionDepth *int
	ImportCacheSize    *int64
	LogEvaluation      *bool
}

func (ov RuntimeConfigOverride) apply(cfg RuntimeConfig) RuntimeConfig {
	if ov.MaxCallDepth != nil {
		cfg.MaxCallDepth = *ov.MaxCallDepth
	}
	if ov.MaxExpressionDepth != nil {
		cfg.MaxExpressionDepth = *ov.MaxExpressionDepth
	}
	if ov.ImportCacheSize != nil {
		cfg.ImportCacheSize = *ov.ImportCacheSize
	}
	if ov.LogEvaluation != nil {
		cfg.LogEvaluation = *ov.LogEvaluation
	}
	return cfg
}
