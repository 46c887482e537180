// Package config loads tessera.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"tessera/internal/codegen"
	"tessera/internal/region"
	"tessera/internal/trace"
	"tessera/internal/vm"
)

// FileName is the config file looked up from the working directory upward.
const FileName = "tessera.toml"

// Config is the effective configuration.
type Config struct {
	Path string `toml:"-"` // empty when defaults are used

	Codegen CodegenConfig `toml:"codegen"`
	VM      VMConfig      `toml:"vm"`
	Trace   TraceConfig   `toml:"trace"`
}

type CodegenConfig struct {
	Region           string `toml:"region"`
	StructuralChecks bool   `toml:"structural_checks"`
	Flares           bool   `toml:"flares"`
}

type VMConfig struct {
	MaxSteps int `toml:"max_steps"`
}

type TraceConfig struct {
	Level     string `toml:"level"`
	Mode      string `toml:"mode"`
	Output    string `toml:"output"`
	Format    string `toml:"format"`
	RingSize  int    `toml:"ring_size"`
	Heartbeat string `toml:"heartbeat"`
}

// Default returns the configuration used without a file.
func Default() Config {
	opts := codegen.DefaultOptions()
	return Config{
		Codegen: CodegenConfig{
			Region:           region.Resilient.String(),
			StructuralChecks: opts.StructuralChecks,
			Flares:           opts.Flares,
		},
		VM: VMConfig{MaxSteps: vm.DefaultMaxSteps},
		Trace: TraceConfig{
			Level:    trace.LevelOff.String(),
			Mode:     trace.ModeStream.String(),
			Output:   "-",
			Format:   "auto",
			RingSize: 4096,
		},
	}
}

// Find looks for tessera.toml in startDir and its parents.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Resolve loads the explicit path if given, else the nearest tessera.toml,
// else the defaults.
func Resolve(explicit, startDir string) (Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load decodes path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every enumerated field.
func (c Config) Validate() error {
	var errs []error
	if _, err := region.ParseID(c.Codegen.Region); err != nil {
		errs = append(errs, fmt.Errorf("[codegen].region: %w", err))
	}
	if c.VM.MaxSteps < 0 {
		errs = append(errs, fmt.Errorf("[vm].max_steps must not be negative, got %d", c.VM.MaxSteps))
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		errs = append(errs, fmt.Errorf("[trace].level: %w", err))
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		errs = append(errs, fmt.Errorf("[trace].mode: %w", err))
	}
	if _, err := trace.ParseFormat(c.Trace.Format); err != nil {
		errs = append(errs, fmt.Errorf("[trace].format: %w", err))
	}
	if c.Trace.Heartbeat != "" {
		if _, err := time.ParseDuration(c.Trace.Heartbeat); err != nil {
			errs = append(errs, fmt.Errorf("[trace].heartbeat: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Region returns the parsed default region.
func (c Config) Region() region.ID {
	id, err := region.ParseID(c.Codegen.Region)
	if err != nil {
		return region.Resilient
	}
	return id
}

// CodegenOptions returns the emitter options.
func (c Config) CodegenOptions() codegen.Options {
	return codegen.Options{
		StructuralChecks: c.Codegen.StructuralChecks,
		Flares:           c.Codegen.Flares,
	}
}

// TracerConfig converts the [trace] table.
func (c Config) TracerConfig() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.Config{}, err
	}
	mode, err := trace.ParseMode(c.Trace.Mode)
	if err != nil {
		return trace.Config{}, err
	}
	format, err := trace.ParseFormat(c.Trace.Format)
	if err != nil {
		return trace.Config{}, err
	}
	var hb time.Duration
	if c.Trace.Heartbeat != "" {
		if hb, err = time.ParseDuration(c.Trace.Heartbeat); err != nil {
			return trace.Config{}, err
		}
	}
	return trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: c.Trace.Output,
		RingSize:   c.Trace.RingSize,
		Heartbeat:  hb,
	}, nil
}

// Fingerprint identifies everything that changes emitted code or results.
func (c Config) Fingerprint() string {
	return fmt.Sprintf("region=%s checks=%t flares=%t steps=%d", c.Codegen.Region, c.Codegen.StructuralChecks, c.Codegen.Flares, c.VM.MaxSteps)
}
