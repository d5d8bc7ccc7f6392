package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/oarkflow/bcl"
	"github.com/oarkflow/errors"
	"github.com/oarkflow/json"
	"gopkg.in/yaml.v3"

	"github.com/oarkflow/rustscript"
	"github.com/oarkflow/rustscript/pkg/source"
)

// Runtime overrides interpreter limits. Unset fields keep the process
// defaults.
type Runtime struct {
	MaxCallDepth       *int   `yaml:"max_call_depth,omitempty" json:"max_call_depth,omitempty"`
	MaxExpressionDepth *int   `yaml:"max_expression_depth,omitempty" json:"max_expression_depth,omitempty"`
	ImportCacheSize    *int64 `yaml:"import_cache_size,omitempty" json:"import_cache_size,omitempty"`
	LogEvaluation      *bool  `yaml:"log_evaluation,omitempty" json:"log_evaluation,omitempty"`
}

type Config struct {
	Runtime Runtime `yaml:"runtime" json:"runtime"`
	// ImportRoot confines imports and prelude files to a directory tree.
	ImportRoot string `yaml:"import_root,omitempty" json:"import_root,omitempty"`
	// LockReads takes a shared file lock while reading script files.
	LockReads bool `yaml:"lock_reads,omitempty" json:"lock_reads,omitempty"`
	// Prelude lists script files evaluated into every global scope.
	Prelude     []string `yaml:"prelude,omitempty" json:"prelude,omitempty"`
	HistoryFile string   `yaml:"history_file,omitempty" json:"history_file,omitempty"`

	dir string
}

// Load reads a config file. The format follows the extension; files with
// another extension are detected from their content.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".bcl":
		_, err = bcl.Unmarshal(data, &cfg)
	default:
		var detected *Config
		detected, err = LoadFromString(string(data))
		if detected != nil {
			cfg = *detected
		}
	}
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromString parses input as JSON, YAML or BCL, in that order.
func LoadFromString(input string) (*Config, error) {
	trimmed := strings.TrimSpace(input)
	var cfg Config
	if trimmed == "" {
		return &cfg, nil
	}
	if json.Unmarshal([]byte(trimmed), &cfg) == nil {
		return &cfg, cfg.Validate()
	}
	cfg = Config{}
	if yaml.Unmarshal([]byte(trimmed), &cfg) == nil {
		return &cfg, cfg.Validate()
	}
	cfg = Config{}
	if _, err := bcl.Unmarshal([]byte(trimmed), &cfg); err == nil {
		return &cfg, cfg.Validate()
	}
	return nil, errors.New("unable to detect config format, please provide valid JSON, YAML, or BCL")
}

func (c *Config) Validate() error {
	r := c.Runtime
	if r.MaxCallDepth != nil && *r.MaxCallDepth <= 0 {
		return errors.New("runtime.max_call_depth must be positive, got " + strconv.Itoa(*r.MaxCallDepth))
	}
	if r.MaxExpressionDepth != nil && *r.MaxExpressionDepth <= 0 {
		return errors.New("runtime.max_expression_depth must be positive, got " + strconv.Itoa(*r.MaxExpressionDepth))
	}
	if r.ImportCacheSize != nil && *r.ImportCacheSize < 0 {
		return errors.New("runtime.import_cache_size must not be negative, got " + strconv.FormatInt(*r.ImportCacheSize, 10))
	}
	for _, p := range c.Prelude {
		if strings.TrimSpace(p) == "" {
			return errors.New("prelude entries must not be empty")
		}
	}
	return nil
}

// Options converts the config into interpreter options. Relative paths
// resolve against the directory of the loaded file.
func (c *Config) Options() []rustscript.Option {
	files := source.NewLocal(source.LocalOptions{
		Root: c.resolve(c.ImportRoot),
		Lock: c.LockReads,
	})
	opts := []rustscript.Option{
		rustscript.WithRuntimeOverride(rustscript.RuntimeConfigOverride{
			MaxCallDepth:       c.Runtime.MaxCallDepth,
			MaxExpressionDepth: c.Runtime.MaxExpressionDepth,
			ImportCacheSize:    c.Runtime.ImportCacheSize,
			LogEvaluation:      c.Runtime.LogEvaluation,
		}),
		rustscript.WithFileReader(files),
	}
	if len(c.Prelude) > 0 {
		paths := make([]string, len(c.Prelude))
		for i, p := range c.Prelude {
			paths[i] = c.resolve(p)
		}
		opts = append(opts, rustscript.WithPrelude(paths...))
	}
	return opts
}

// History returns the REPL history path, defaulting to ~/.rsc_history.
func (c *Config) History() string {
	if c.HistoryFile != "" {
		return c.resolve(c.HistoryFile)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".rsc_history")
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~"+string(os.PathSeparator)) {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	if c.dir == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return path
		}
		return abs
	}
	return filepath.Join(c.dir, path)
}
