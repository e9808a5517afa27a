// Copyright the Taintflow Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"strconv"
)

// MemoryLimitEnvVar overrides the memory-limit setting when set to a byte count.
const MemoryLimitEnvVar = "TAINTFLOW_MEMORY_LIMIT"

const (
	// DefaultMaxDepth bounds the length of a source-to-sink chain across function calls.
	DefaultMaxDepth = 5

	// DefaultMaxPathsPerSink bounds CFG path enumeration between a source and a sink block.
	DefaultMaxPathsPerSink = 100

	// DefaultMemoryPercent is the share of system memory the cache may claim when no
	// explicit memory-limit is configured.
	DefaultMemoryPercent = 60

	// MinMemoryLimit and MaxMemoryLimit clamp the computed cache budget.
	MinMemoryLimit = 256 << 20
	MaxMemoryLimit = 16 << 30
)

// Config contains the settings of a single taint tracing run.
// If some field is not defined in the config file, it keeps its default value:
// Load unmarshals the file on top of NewDefault.
type Config struct {
	sourceFile string

	// MaxDepth bounds the hop count of a taint chain. The bound is global across the whole
	// source-to-sink chain, it is never reset when the analysis enters a callee.
	MaxDepth int `yaml:"max-depth"`

	// MaxPathsPerSink bounds the number of CFG paths enumerated per source/sink candidate.
	MaxPathsPerSink int `yaml:"max-paths-per-sink"`

	// UseMemoryCache enables preloading the program database into memory before tracing.
	UseMemoryCache bool `yaml:"use-memory-cache"`

	// MemoryLimit is the cache budget in bytes. Zero means the budget is computed from
	// MemoryPercent of the system memory, clamped to [MinMemoryLimit, MaxMemoryLimit].
	MemoryLimit int64 `yaml:"memory-limit"`

	// MemoryPercent is the share of system memory used when MemoryLimit is zero.
	MemoryPercent int `yaml:"memory-percent"`

	// EnabledCategories restricts the analysis to the named vulnerability categories.
	// Empty means all categories. Unknown names are a configuration error reported by
	// the orchestrator before any traversal starts.
	EnabledCategories []string `yaml:"enabled-categories"`

	// PatternFile is an optional yaml overlay merged into the built-in pattern catalog.
	PatternFile string `yaml:"pattern-file"`

	// MaxAlarms caps the number of reported findings. <= 0 means no cap.
	MaxAlarms int `yaml:"max-alarms"`

	// LogLevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// SilenceWarn suppresses warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns the default config.
func NewDefault() *Config {
	return &Config{
		MaxDepth:        DefaultMaxDepth,
		MaxPathsPerSink: DefaultMaxPathsPerSink,
		UseMemoryCache:  true,
		MemoryLimit:     0,
		MemoryPercent:   DefaultMemoryPercent,
		MaxAlarms:       0,
		LogLevel:        int(InfoLevel),
	}
}

// Load reads a configuration from a file. Fields absent from the file keep their defaults.
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	cfg, err := LoadBytes(b)
	if err != nil {
		return nil, fmt.Errorf("could not load config file %s: %w", filename, err)
	}
	cfg.sourceFile = filename
	return cfg, nil
}

// LoadBytes parses a yaml configuration and applies defaults and the environment override.
func LoadBytes(b []byte) (*Config, error) {
	cfg := NewDefault()
	if err := unmarshalStrict(b, cfg); err != nil {
		return nil, err
	}

	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.MaxPathsPerSink <= 0 {
		cfg.MaxPathsPerSink = DefaultMaxPathsPerSink
	}
	if cfg.MemoryPercent <= 0 || cfg.MemoryPercent > 100 {
		cfg.MemoryPercent = DefaultMemoryPercent
	}
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}

	if v := os.Getenv(MemoryLimitEnvVar); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid %s value %q", MemoryLimitEnvVar, v)
		}
		cfg.MemoryLimit = n
	}

	return cfg, nil
}

// SourceFile returns the file the configuration was loaded from, if any.
func (c Config) SourceFile() string {
	return c.sourceFile
}

// Verbose returns true if the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}

// ExceedsMaxDepth returns true if the input exceeds the maximum depth parameter of the configuration.
func (c Config) ExceedsMaxDepth(d int) bool {
	return d > c.MaxDepth
}
