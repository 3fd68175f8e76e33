package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-brochure/internal/fileutil"
	"github.com/alnah/go-brochure/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength   = 4096 // PATH_MAX on Linux
	MaxURLLength    = 2048 // Browser limit
	MaxNameLength   = 64   // style, corner, page format
	MaxBucketLength = 63   // S3-compatible bucket names
	MaxWorkers      = 32
)

// Defaults used when neither config, environment, nor flags set a value.
const (
	DefaultInputPath  = "itineraries.json"
	DefaultOutputDir  = "dist/brochures"
	DefaultBaseURL    = "http://localhost:3000"
	DefaultMarkPath   = "assets/logo.png"
	DefaultBucket     = "brochures"
	DefaultTimeout    = 60 * time.Second
	DefaultSettle     = 3 * time.Second
	DefaultIdle       = 500 * time.Millisecond
	DefaultPageFormat = "a4"
	DefaultCorner     = "bottom-right"
)

// Config holds all configuration for a capture run.
type Config struct {
	Input  InputConfig  `yaml:"input"`
	Output OutputConfig `yaml:"output"`
	Render RenderConfig `yaml:"render"`
	Mark   MarkConfig   `yaml:"mark"`
	Remote RemoteConfig `yaml:"remote"`
	Ledger LedgerConfig `yaml:"ledger"`
}

// InputConfig locates the identifier list.
type InputConfig struct {
	Path string `yaml:"path"` // JSON or YAML list
}

// OutputConfig defines where artifacts are written.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// RenderConfig defines browser capture options.
type RenderConfig struct {
	BaseURL    string `yaml:"baseURL"`
	Timeout    string `yaml:"timeout"`    // Go duration, e.g. "60s"
	Settle     string `yaml:"settle"`     // fixed delay after network idle
	Idle       string `yaml:"idle"`       // quiet period that counts as idle
	PageFormat string `yaml:"pageFormat"` // "a4", "letter", "legal", "continuous"
	Style      string `yaml:"style"`      // print stylesheet name, "none" disables
	AssetPath  string `yaml:"assetPath"`  // custom styles directory
	Script     string `yaml:"script"`     // JavaScript file run before printing
	Workers    int    `yaml:"workers"`    // 0 = one per two CPUs, capped at 8
}

// MarkConfig defines the stamped logo and its placement.
type MarkConfig struct {
	Path      string  `yaml:"path"`
	Corner    string  `yaml:"corner"`    // "bottom-right", "bottom-left", "top-right", "top-left"
	MaxWidth  float64 `yaml:"maxWidth"`  // points, 0 = default
	MaxHeight float64 `yaml:"maxHeight"` // points, 0 = default
	Margin    float64 `yaml:"margin"`    // points, 0 = default
	Opacity   float64 `yaml:"opacity"`   // 0 = default
}

// RemoteConfig defines the object store target. Credentials never live in
// the config file; they come from the environment.
type RemoteConfig struct {
	Bucket       string `yaml:"bucket"`
	EnsureBucket bool   `yaml:"ensureBucket"` // create the bucket when missing
	Public       bool   `yaml:"public"`       // visibility of a created bucket
}

// LedgerConfig defines the outcome history database.
type LedgerConfig struct {
	Path string `yaml:"path"` // empty = disabled
}

// Validate checks lengths, enumerations and ranges.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"input.path", c.Input.Path, MaxPathLength},
		{"output.dir", c.Output.Dir, MaxPathLength},
		{"render.baseURL", c.Render.BaseURL, MaxURLLength},
		{"render.pageFormat", c.Render.PageFormat, MaxNameLength},
		{"render.style", c.Render.Style, MaxNameLength},
		{"render.assetPath", c.Render.AssetPath, MaxPathLength},
		{"render.script", c.Render.Script, MaxPathLength},
		{"mark.path", c.Mark.Path, MaxPathLength},
		{"mark.corner", c.Mark.Corner, MaxNameLength},
		{"remote.bucket", c.Remote.Bucket, MaxBucketLength},
		{"ledger.path", c.Ledger.Path, MaxPathLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	if c.Render.BaseURL != "" {
		u, err := url.Parse(c.Render.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: render.baseURL: %q is not an http(s) URL", ErrInvalidValue, c.Render.BaseURL)
		}
	}

	for name, value := range map[string]string{
		"render.timeout": c.Render.Timeout,
		"render.settle":  c.Render.Settle,
		"render.idle":    c.Render.Idle,
	} {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, name, err)
		}
		if d < 0 || (name == "render.timeout" && d == 0) {
			return fmt.Errorf("%w: %s: must be positive, got %s", ErrInvalidValue, name, value)
		}
	}

	if c.Render.PageFormat != "" {
		switch strings.ToLower(c.Render.PageFormat) {
		case "a4", "letter", "legal", "continuous":
		default:
			return fmt.Errorf("%w: render.pageFormat: %q (must be a4, letter, legal, or continuous)", ErrInvalidValue, c.Render.PageFormat)
		}
	}

	if c.Render.Workers < 0 || c.Render.Workers > MaxWorkers {
		return fmt.Errorf("%w: render.workers: must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Render.Workers)
	}

	if c.Mark.Corner != "" {
		switch strings.ToLower(c.Mark.Corner) {
		case "bottom-right", "bottom-left", "top-right", "top-left":
		default:
			return fmt.Errorf("%w: mark.corner: %q (must be bottom-right, bottom-left, top-right, or top-left)", ErrInvalidValue, c.Mark.Corner)
		}
	}
	if c.Mark.MaxWidth < 0 || c.Mark.MaxHeight < 0 {
		return fmt.Errorf("%w: mark.maxWidth/maxHeight: must not be negative", ErrInvalidValue)
	}
	if c.Mark.Margin < 0 {
		return fmt.Errorf("%w: mark.margin: must not be negative, got %.2f", ErrInvalidValue, c.Mark.Margin)
	}
	if c.Mark.Opacity < 0 || c.Mark.Opacity > 1 {
		return fmt.Errorf("%w: mark.opacity: must be between 0 and 1, got %.2f", ErrInvalidValue, c.Mark.Opacity)
	}

	return nil
}

// Durations returns the parsed render durations, substituting defaults for
// empty values. Call Validate first; unparsable values also fall back.
func (c *Config) Durations() (timeout, settle, idle time.Duration) {
	return parseOr(c.Render.Timeout, DefaultTimeout),
		parseOr(c.Render.Settle, DefaultSettle),
		parseOr(c.Render.Idle, DefaultIdle)
}

func parseOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() *Config {
	return &Config{
		Input:  InputConfig{Path: DefaultInputPath},
		Output: OutputConfig{Dir: DefaultOutputDir},
		Render: RenderConfig{
			BaseURL:    DefaultBaseURL,
			Timeout:    DefaultTimeout.String(),
			Settle:     DefaultSettle.String(),
			Idle:       DefaultIdle.String(),
			PageFormat: DefaultPageFormat,
			Style:      "capture",
			Workers:    1,
		},
		Mark:   MarkConfig{Path: DefaultMarkPath, Corner: DefaultCorner},
		Remote: RemoteConfig{Bucket: DefaultBucket},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields absent from the file keep their DefaultConfig value.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-brochure/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-brochure", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
