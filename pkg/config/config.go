// Package config manages luanextc's project configuration: the dialect to
// target, optimization level, emitted artifacts, and the alias map consumed
// by the codegen's require() lowering.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/luanext/luanext/pkg/cache"
)

// Dialect identifies a target Lua runtime.
type Dialect string

const (
	Lua51  Dialect = "5.1"
	Lua52  Dialect = "5.2"
	Lua53  Dialect = "5.3"
	Lua54  Dialect = "5.4"
	Lua55  Dialect = "5.5"
	LuaJIT Dialect = "luajit"
)

func (d Dialect) IsValid() bool {
	switch d {
	case Lua51, Lua52, Lua53, Lua54, Lua55, LuaJIT:
		return true
	default:
		return false
	}
}

// OptimizationLevel gates which optimizer passes run.
type OptimizationLevel int

const (
	OptNone OptimizationLevel = iota
	OptMinimal
	OptModerate
	OptAggressive
)

func ParseOptimizationLevel(s string) (OptimizationLevel, error) {
	switch s {
	case "0", "none":
		return OptNone, nil
	case "1", "minimal":
		return OptMinimal, nil
	case "2", "moderate":
		return OptModerate, nil
	case "3", "aggressive":
		return OptAggressive, nil
	default:
		return OptNone, fmt.Errorf("invalid optimization level: %q (want 0-3 or none/minimal/moderate/aggressive)", s)
	}
}

func (l OptimizationLevel) String() string {
	switch l {
	case OptNone:
		return "none"
	case OptMinimal:
		return "minimal"
	case OptModerate:
		return "moderate"
	case OptAggressive:
		return "aggressive"
	default:
		return "unknown"
	}
}

// EmitConfig controls what the driver writes to disk: --out-dir,
// --no-emit, --source-map, --pretty.
type EmitConfig struct {
	OutDir     string `toml:"out_dir"`
	NoEmit     bool   `toml:"no_emit"`
	SourceMap  bool   `toml:"source_map"`
	Pretty     bool   `toml:"pretty"`
	Minified   bool   `toml:"minified"`
}

// CacheConfig controls the incremental compilation cache.
type CacheConfig struct {
	Disabled bool   `toml:"disabled"`
	Dir      string `toml:"dir"`
}

// OptimizerConfig controls the multi-pass optimizer.
type OptimizerConfig struct {
	Level       OptimizationLevel `toml:"-"`
	LevelName   string            `toml:"level"`
	IterationCap int              `toml:"iteration_cap"`
}

// Config is the full luanextc project configuration, loaded from
// luanext.toml with CLI-flag overrides applied last (highest precedence).
type Config struct {
	Target    Dialect           `toml:"target"`
	Emit      EmitConfig        `toml:"emit"`
	Cache     CacheConfig       `toml:"cache"`
	Optimizer OptimizerConfig   `toml:"optimizer"`
	// Alias maps import path prefixes to resolved filesystem prefixes, e.g.
	// "@/utils" -> "./src/utils".
	Alias map[string]string `toml:"alias"`
}

func DefaultConfig() *Config {
	return &Config{
		Target: Lua54,
		Emit: EmitConfig{
			OutDir:    "dist",
			SourceMap: false,
			Pretty:    false,
		},
		Cache: CacheConfig{
			Dir: cache.CacheDirName,
		},
		Optimizer: OptimizerConfig{
			Level:        OptModerate,
			LevelName:    "moderate",
			IterationCap: 32,
		},
		Alias: map[string]string{},
	}
}

// Load loads configuration from multiple sources with precedence:
//  1. CLI flags (highest priority) - passed as overrides
//  2. Project luanext.toml (current directory)
//  3. User config (~/.luanext/config.toml)
//  4. Built-in defaults (lowest priority)
func Load(overrides *Config) (*Config, error) {
	cfg := DefaultConfig()

	userConfigPath := filepath.Join(os.Getenv("HOME"), ".luanext", "config.toml")
	if err := loadConfigFile(userConfigPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	projectConfigPath := "luanext.toml"
	if err := loadConfigFile(projectConfigPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}

	if err := cfg.resolveOptimizerLevel(); err != nil {
		return nil, err
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func applyOverrides(cfg, overrides *Config) {
	if overrides.Target != "" {
		cfg.Target = overrides.Target
	}
	if overrides.Emit.OutDir != "" {
		cfg.Emit.OutDir = overrides.Emit.OutDir
	}
	if overrides.Emit.NoEmit {
		cfg.Emit.NoEmit = true
	}
	if overrides.Emit.SourceMap {
		cfg.Emit.SourceMap = true
	}
	if overrides.Emit.Pretty {
		cfg.Emit.Pretty = true
	}
	if overrides.Cache.Disabled {
		cfg.Cache.Disabled = true
	}
	if overrides.Cache.Dir != "" {
		cfg.Cache.Dir = overrides.Cache.Dir
	}
	if overrides.Optimizer.LevelName != "" {
		cfg.Optimizer.LevelName = overrides.Optimizer.LevelName
		cfg.Optimizer.Level = overrides.Optimizer.Level
	}
	for k, v := range overrides.Alias {
		cfg.Alias[k] = v
	}
}

func loadConfigFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) resolveOptimizerLevel() error {
	if c.Optimizer.LevelName == "" {
		return nil
	}
	lvl, err := ParseOptimizationLevel(c.Optimizer.LevelName)
	if err != nil {
		return err
	}
	c.Optimizer.Level = lvl
	return nil
}

func (c *Config) Validate() error {
	if !c.Target.IsValid() {
		return fmt.Errorf("invalid target: %q (must be one of 5.1, 5.2, 5.3, 5.4, 5.5, luajit)", c.Target)
	}
	if c.Optimizer.IterationCap <= 0 {
		return fmt.Errorf("iteration_cap must be positive, got %d", c.Optimizer.IterationCap)
	}
	return nil
}

// Hash returns a stable digest of the parts of the configuration that
// affect emitted output, used as the cache manifest's config hash — a
// change here invalidates the whole cache. Field order is
// fixed and alias entries are sorted so the hash is independent of map
// iteration order.
func (c *Config) Hash() string {
	var b strings.Builder
	fmt.Fprintf(&b, "target=%s\n", c.Target)
	fmt.Fprintf(&b, "optimize=%s\n", c.Optimizer.Level)
	fmt.Fprintf(&b, "iteration_cap=%d\n", c.Optimizer.IterationCap)
	fmt.Fprintf(&b, "source_map=%t\n", c.Emit.SourceMap)
	fmt.Fprintf(&b, "minified=%t\n", c.Emit.Minified)
	fmt.Fprintf(&b, "pretty=%t\n", c.Emit.Pretty)

	keys := make([]string, 0, len(c.Alias))
	for k := range c.Alias {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "alias:%s=%s\n", k, c.Alias[k])
	}

	return cache.HashBytes([]byte(b.String()))
}

// ResolveAlias rewrites an import source against the longest matching
// alias prefix. The second return reports whether an alias matched.
func (c *Config) ResolveAlias(importSource string) (string, bool) {
	var bestPrefix, bestTarget string
	for prefix, target := range c.Alias {
		if strings.HasPrefix(importSource, prefix) && len(prefix) > len(bestPrefix) {
			bestPrefix, bestTarget = prefix, target
		}
	}
	if bestPrefix == "" {
		return importSource, false
	}
	return bestTarget + strings.TrimPrefix(importSource, bestPrefix), true
}
