package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level tool configuration. Every field can be overridden
// per invocation by a CLI flag; the file just carries the operator's
// defaults.
type Config struct {
	// Listen is the HTTP listen address for the APK distribution server.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA display zone stamped onto events built from
	// templates that do not declare their own. It never affects stored UTC
	// timestamps.
	Timezone string `yaml:"timezone" json:"timezone"`

	// StartOffsetMinutes is the default lead time between generating an
	// event and its first action.
	StartOffsetMinutes int `yaml:"start_offset_minutes" json:"start_offset_minutes"`

	// ErrorCorrection selects the QR error-correction level:
	// "low", "medium", "high" or "highest".
	ErrorCorrection string `yaml:"error_correction" json:"error_correction"`

	// OutputDir is where generated QR PNG files are written.
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// ReleaseAPK and DebugAPK are the candidate package paths served by the
	// distribution server; release is preferred when both exist.
	ReleaseAPK string `yaml:"release_apk" json:"release_apk"`
	DebugAPK   string `yaml:"debug_apk" json:"debug_apk"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:             ":8888",
		Timezone:           "",
		StartOffsetMinutes: 2,
		ErrorCorrection:    "medium",
		OutputDir:          ".",
		ReleaseAPK:         "androidApp/build/outputs/apk/release/androidApp-release.apk",
		DebugAPK:           "androidApp/build/outputs/apk/debug/androidApp-debug.apk",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.StartOffsetMinutes <= 0 {
		c.StartOffsetMinutes = def.StartOffsetMinutes
	}
	switch c.ErrorCorrection {
	case "low", "medium", "high", "highest":
		// ok
	default:
		c.ErrorCorrection = def.ErrorCorrection
	}
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
	if c.ReleaseAPK == "" {
		c.ReleaseAPK = def.ReleaseAPK
	}
	if c.DebugAPK == "" {
		c.DebugAPK = def.DebugAPK
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".conductor-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
