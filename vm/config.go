package vm

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds host-tunable VM limits — the configuration layer
// spec.md's distillation has no room for but a complete interpreter host
// needs (SPEC_FULL.md §8). Zero value is not meaningful; use
// DefaultConfig or LoadConfig.
type Config struct {
	MaxCallDepth int    `yaml:"max_call_depth"`
	Trace        bool   `yaml:"trace"`
	CacheDir     string `yaml:"cache_dir"`
}

// DefaultConfig returns the limits used when no .luacore.yaml is present.
func DefaultConfig() *Config {
	return &Config{
		MaxCallDepth: 4096,
		Trace:        false,
		CacheDir:     ".luacore-cache",
	}
}

// LoadConfig reads path (a YAML document shaped like Config) and overlays
// it onto DefaultConfig's values. A missing file is not an error — it
// just means the defaults stand.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	log.SetFlags(0)
}

// traceLog emits one line per dispatched opcode when Config.Trace is set,
// matching the teacher's log.Println-based diagnostics (runtime's
// interpreter.go logs via the stdlib log package with flags stripped).
func traceLog(function string, ip int, instr Instruction) {
	log.Printf("[trace] %s@%d: %s", function, ip, instr)
}
