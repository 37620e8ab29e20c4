// Package config loads markweave.yaml, the project configuration shared by
// every command.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/markweave/internal/schema"
)

// DefaultFilename is the configuration file looked up when none is given.
const DefaultFilename = "markweave.yaml"

// CurrentVersion is the only configuration version understood.
const CurrentVersion = "1"

// Config is the top-level configuration.
type Config struct {
	Version           string                     `yaml:"version"`
	Extensions        []string                   `yaml:"extensions,omitempty"`
	SchemaDirectory   string                     `yaml:"schema_directory,omitempty"`
	PartialsDirectory string                     `yaml:"partials_directory,omitempty"`
	ValidationLevel   string                     `yaml:"validation_level,omitempty"`
	Layout            string                     `yaml:"layout,omitempty"`
	ComponentsPath    string                     `yaml:"components_path,omitempty"`
	Parser            ParserConfig               `yaml:"parser"`
	Variables         map[string]any             `yaml:"variables,omitempty"`
	Tags              map[string]schema.Schema   `yaml:"tags,omitempty"`
	Nodes             map[string]schema.Schema   `yaml:"nodes,omitempty"`
	Functions         map[string]schema.Function `yaml:"functions,omitempty"`
	Output            OutputConfig               `yaml:"output"`
	Build             BuildConfig                `yaml:"build"`
	Logging           LoggingConfig              `yaml:"logging"`
	Metrics           MetricsConfig              `yaml:"metrics"`
}

// ParserConfig toggles Markdown extensions. Tables defaults to on.
type ParserConfig struct {
	Linkify     bool  `yaml:"linkify,omitempty"`
	Typographer bool  `yaml:"typographer,omitempty"`
	Tables      *bool `yaml:"tables,omitempty"`
}

// OutputConfig controls where the build command writes components.
type OutputConfig struct {
	Directory string `yaml:"directory,omitempty"`
	Extension string `yaml:"extension,omitempty"`
	Manifest  string `yaml:"manifest,omitempty"`
}

// BuildConfig tunes the build command.
type BuildConfig struct {
	Concurrency int `yaml:"concurrency,omitempty"`
}

// LoggingConfig selects the log level and handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// MetricsConfig enables the Prometheus endpoint of the watch command.
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// Load reads, normalizes, defaults and validates a configuration file.
// Environment files next to it are loaded first; ${VAR} references in the
// file are then expanded.
func Load(configPath string) (*Config, error) {
	loadEnvFiles(filepath.Dir(configPath))

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	// #nosec G304 -- the configuration path comes from the command line
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes configuration source. It is Load without the file system.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(expandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := Normalize(&cfg); err != nil {
		return nil, fmt.Errorf("failed to normalize configuration: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns a fully defaulted configuration, used when a project has
// no configuration file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} references. Bare $name is left alone since
// expressions in tags and functions use it for variables.
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(envRef.FindStringSubmatch(m)[1])
	})
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	tables := true
	example := Config{
		Version:         CurrentVersion,
		Extensions:      []string{".mdoc", ".md"},
		ValidationLevel: "error",
		Layout:          "/src/lib/layouts/Default.svelte",
		ComponentsPath:  "/src/lib/components",
		Parser:          ParserConfig{Tables: &tables},
		Variables:       map[string]any{"site": map[string]any{"name": "${SITE_NAME}"}},
		Tags: map[string]schema.Schema{
			"callout": {
				Render: "Callout",
				Attributes: map[string]schema.Attribute{
					"type": {Type: schema.TypeString, Default: "note", Matches: []any{"note", "warning", "tip"}},
				},
			},
		},
		Output:  OutputConfig{Directory: "src/routes", Extension: ".svelte", Manifest: ".markweave/manifest.json"},
		Build:   BuildConfig{Concurrency: 4},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	// #nosec G306 -- the configuration holds no secrets, ${VAR} references stay unexpanded
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
