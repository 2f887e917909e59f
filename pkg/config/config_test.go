package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Target != Lua54 {
		t.Errorf("expected default target 5.4, got %q", cfg.Target)
	}
	if cfg.Optimizer.Level != OptModerate {
		t.Errorf("expected default optimization level moderate, got %v", cfg.Optimizer.Level)
	}
	if cfg.Optimizer.IterationCap <= 0 {
		t.Errorf("expected a positive default iteration cap")
	}
	if cfg.Emit.OutDir == "" {
		t.Errorf("expected a non-empty default out dir")
	}
}

func TestDialectValidation(t *testing.T) {
	tests := []struct {
		d     Dialect
		valid bool
	}{
		{Lua51, true},
		{Lua52, true},
		{Lua53, true},
		{Lua54, true},
		{Lua55, true},
		{LuaJIT, true},
		{Dialect("5.6"), false},
		{Dialect(""), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.d), func(t *testing.T) {
			if got := tt.d.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v for %q", got, tt.valid, tt.d)
			}
		})
	}
}

func TestParseOptimizationLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    OptimizationLevel
		wantErr bool
	}{
		{"0", OptNone, false},
		{"none", OptNone, false},
		{"1", OptMinimal, false},
		{"moderate", OptModerate, false},
		{"3", OptAggressive, false},
		{"aggressive", OptAggressive, false},
		{"bogus", OptNone, true},
	}
	for _, tt := range tests {
		got, err := ParseOptimizationLevel(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseOptimizationLevel(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseOptimizationLevel(%q): unexpected error %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseOptimizationLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name      string
		config    *Config
		wantError bool
		errorMsg  string
	}{
		{
			name:      "valid default config",
			config:    DefaultConfig(),
			wantError: false,
		},
		{
			name: "invalid target",
			config: &Config{
				Target:    Dialect("5.9"),
				Optimizer: OptimizerConfig{IterationCap: 10},
			},
			wantError: true,
			errorMsg:  "invalid target",
		},
		{
			name: "non-positive iteration cap",
			config: &Config{
				Target:    Lua53,
				Optimizer: OptimizerConfig{IterationCap: 0},
			},
			wantError: true,
			errorMsg:  "iteration_cap",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantError {
				if err == nil || !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error containing %q, got %v", tt.errorMsg, err)
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func withTempProjectDir(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(oldWd) })
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}

	oldHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	t.Cleanup(func() { os.Setenv("HOME", oldHome) })

	return tmpDir
}

func TestLoadConfigNoFiles(t *testing.T) {
	withTempProjectDir(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Target != Lua54 {
		t.Errorf("expected default target, got %q", cfg.Target)
	}
}

func TestLoadConfigProjectFile(t *testing.T) {
	tmpDir := withTempProjectDir(t)

	projectConfig := `target = "5.1"

[emit]
source_map = true
pretty = true

[optimizer]
level = "aggressive"
iteration_cap = 8

[alias]
"@/utils" = "./src/utils"
`
	if err := os.WriteFile(filepath.Join(tmpDir, "luanext.toml"), []byte(projectConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Target != Lua51 {
		t.Errorf("expected target 5.1 from project config, got %q", cfg.Target)
	}
	if !cfg.Emit.SourceMap || !cfg.Emit.Pretty {
		t.Errorf("expected source_map and pretty to be enabled from project config")
	}
	if cfg.Optimizer.Level != OptAggressive {
		t.Errorf("expected aggressive optimization level, got %v", cfg.Optimizer.Level)
	}
	if cfg.Optimizer.IterationCap != 8 {
		t.Errorf("expected iteration cap 8, got %d", cfg.Optimizer.IterationCap)
	}
	if got := cfg.Alias["@/utils"]; got != "./src/utils" {
		t.Errorf("expected alias to load, got %q", got)
	}
}

func TestLoadConfigCLIOverride(t *testing.T) {
	tmpDir := withTempProjectDir(t)

	projectConfig := `target = "5.1"`
	if err := os.WriteFile(filepath.Join(tmpDir, "luanext.toml"), []byte(projectConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	overrides := &Config{Target: Lua55}
	cfg, err := Load(overrides)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Target != Lua55 {
		t.Errorf("expected CLI override to win, got %q", cfg.Target)
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	tmpDir := withTempProjectDir(t)

	invalidConfig := `[emit
source_map = true
`
	if err := os.WriteFile(filepath.Join(tmpDir, "luanext.toml"), []byte(invalidConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(nil); err == nil {
		t.Error("expected error for invalid TOML, got nil")
	}
}

func TestLoadConfigInvalidValue(t *testing.T) {
	tmpDir := withTempProjectDir(t)

	invalidConfig := `target = "not-a-dialect"`
	if err := os.WriteFile(filepath.Join(tmpDir, "luanext.toml"), []byte(invalidConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(nil)
	if err == nil {
		t.Error("expected validation error, got nil")
	} else if !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("expected 'invalid configuration' error, got %v", err)
	}
}

func TestConfigHashStableAcrossAliasOrder(t *testing.T) {
	a := DefaultConfig()
	a.Alias = map[string]string{"@/a": "./a", "@/b": "./b"}
	b := DefaultConfig()
	b.Alias = map[string]string{"@/b": "./b", "@/a": "./a"}

	if a.Hash() != b.Hash() {
		t.Errorf("expected hash to be independent of alias map iteration order")
	}
}

func TestConfigHashChangesWithTarget(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	b.Target = Lua51

	if a.Hash() == b.Hash() {
		t.Errorf("expected different targets to produce different config hashes")
	}
}

func TestResolveAliasPicksLongestPrefix(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Alias = map[string]string{
		"@/":       "./src/",
		"@/utils/": "./src/shared/utils/",
	}

	resolved, matched := cfg.ResolveAlias("@/utils/strings")
	if !matched {
		t.Fatalf("expected an alias match")
	}
	if resolved != "./src/shared/utils/strings" {
		t.Errorf("expected longest-prefix alias to win, got %q", resolved)
	}

	resolved, matched = cfg.ResolveAlias("@/other")
	if !matched || resolved != "./src/other" {
		t.Errorf("expected fallback alias match, got %q matched=%v", resolved, matched)
	}

	_, matched = cfg.ResolveAlias("./plain/path")
	if matched {
		t.Errorf("expected no alias match for an unprefixed path")
	}
}
