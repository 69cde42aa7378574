package backend

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/synthkit/internal/synth"
)

// Config holds engine locations and process settings.
type Config struct {
	GR1CPath      string        `yaml:"gr1c_path"`
	JavaPath      string        `yaml:"java_path"`
	JTLVClasspath string        `yaml:"jtlv_classpath"`
	Timeout       time.Duration `yaml:"timeout"`    // Zero means no limit
	WorkDir       string        `yaml:"work_dir"`   // Parent for per-run temp dirs; empty means os.TempDir
	KeepFiles     bool          `yaml:"keep_files"` // Leave rendered inputs and outputs on disk
}

// DefaultConfig looks for the engines on PATH with a five minute limit.
func DefaultConfig() Config {
	return Config{
		GR1CPath: "gr1c",
		JavaPath: "java",
		Timeout:  5 * time.Minute,
	}
}

// LoadConfig reads a YAML config file over DefaultConfig.
// Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Register adds the gr1c and JTLV adapters to reg. Both are always known;
// a JTLV adapter without a classpath fails when asked to synthesize.
func Register(reg *synth.Registry, cfg Config, runner Runner, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	reg.Register(synth.GR1C, &GR1C{Config: cfg, Runner: runner, Logger: logger})
	reg.Register(synth.JTLV, &JTLV{Config: cfg, Runner: runner, Logger: logger})
}
