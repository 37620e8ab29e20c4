package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/markweave/internal/validation"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, DefaultFilename)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, t.TempDir(), "version: \"1\"\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{".mdoc", ".md"}, cfg.Extensions)
	assert.Equal(t, "error", cfg.ValidationLevel)
	assert.Equal(t, validation.SeverityError, cfg.Threshold())
	assert.Equal(t, "/src/lib/components", cfg.ComponentsPath)
	require.NotNil(t, cfg.Parser.Tables)
	assert.True(t, *cfg.Parser.Tables)
	assert.Equal(t, OutputConfig{Directory: "build", Extension: ".svelte", Manifest: ".markweave/manifest.json"}, cfg.Output)
	assert.Equal(t, DefaultConcurrency, cfg.Build.Concurrency)
	assert.Equal(t, LoggingConfig{Level: LogLevelInfo, Format: LogFormatText}, cfg.Logging)
}

func TestLoad_FullFile(t *testing.T) {
	src := `version: "1"
extensions: [MDOC, "md", ".md"]
validation_level: Warning
layout: /src/Layout.svelte
components_path: /src/components/
parser:
  linkify: true
  tables: false
variables:
  site: Docs
tags:
  callout:
    render: Callout
    attributes:
      type: {type: string, matches: [note, warning]}
functions:
  shout:
    params: [s]
    result: upper($s)
output:
  extension: svelte
build:
  concurrency: 2
logging:
  level: DEBUG
  format: json
metrics:
  listen: ":9090"
`
	cfg, err := Load(writeConfig(t, t.TempDir(), src))
	require.NoError(t, err)

	assert.Equal(t, []string{".mdoc", ".md"}, cfg.Extensions)
	assert.Equal(t, "warning", cfg.ValidationLevel)
	assert.Equal(t, "/src/components", cfg.ComponentsPath)
	assert.Equal(t, ".svelte", cfg.Output.Extension)
	assert.Equal(t, LogLevelDebug, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
	assert.Equal(t, "upper($s)", cfg.Functions["shout"].Source)

	opts := cfg.PreprocessOptions("/project")
	assert.Equal(t, "/project", opts.Root)
	assert.Equal(t, validation.SeverityWarning, opts.ValidationLevel)
	assert.True(t, opts.Parser.Linkify)
	assert.False(t, opts.Parser.Tables)
	assert.Equal(t, "Callout", opts.Direct.Tags["callout"].Render)
	assert.Equal(t, map[string]any{"site": "Docs"}, opts.Direct.Variables)
	assert.Contains(t, opts.Direct.Functions, "shout")
}

func TestLoad_ExpandsBracedEnvOnly(t *testing.T) {
	t.Setenv("MW_SITE", "Handbook")
	src := "variables:\n  site: ${MW_SITE}\nfunctions:\n  f:\n    params: [x]\n    result: $x\n"

	cfg, err := Load(writeConfig(t, t.TempDir(), src))
	require.NoError(t, err)

	assert.Equal(t, "Handbook", cfg.Variables["site"])
	assert.Equal(t, "$x", cfg.Functions["f"].Source)
}

func TestLoad_EnvFileDoesNotOverrideProcessEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MW_FROM_FILE=file\nMW_BOTH=file\n"), 0o600))
	t.Setenv("MW_BOTH", "process")
	t.Setenv("MW_FROM_FILE", "")
	require.NoError(t, os.Unsetenv("MW_FROM_FILE"))

	cfg, err := Load(writeConfig(t, dir, "variables:\n  a: ${MW_FROM_FILE}\n  b: ${MW_BOTH}\n"))
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Variables["a"])
	assert.Equal(t, "process", cfg.Variables["b"])
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]string{
		"version":    "version: \"2\"\n",
		"level":      "validation_level: fatal\n",
		"yaml":       "tags: [\n",
		"listen":     "metrics:\n  listen: nope\n",
		"render":     "tags:\n  x:\n    render: \"<bad>\"\n",
		"output ext": "extensions: [.md]\noutput:\n  extension: .md\n",
		"function":   "functions:\n  f:\n    params: [a]\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, t.TempDir(), src))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "configuration file not found")
}

func TestInit(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", DefaultFilename)

	require.NoError(t, Init(p, false))
	err := Init(p, false)
	assert.ErrorContains(t, err, "already exists")
	require.NoError(t, Init(p, true))

	t.Setenv("SITE_NAME", "Example")
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "Callout", cfg.Tags["callout"].Render)
	assert.Equal(t, map[string]any{"name": "Example"}, cfg.Variables["site"])
	assert.Equal(t, 4, cfg.Build.Concurrency)
}

func TestSnapshot(t *testing.T) {
	a := Default()
	b := Default()
	assert.Equal(t, a.Snapshot(), b.Snapshot())
	assert.Len(t, a.Snapshot(), 64)

	b.Extensions = []string{".md", ".mdoc"}
	assert.Equal(t, a.Snapshot(), b.Snapshot(), "extension order is ignored")

	b.Logging.Level = LogLevelDebug
	b.Metrics.Listen = ":9090"
	assert.Equal(t, a.Snapshot(), b.Snapshot(), "runtime-only settings are ignored")

	b.Layout = "/src/Layout.svelte"
	assert.NotEqual(t, a.Snapshot(), b.Snapshot())

	c := Default()
	c.Variables = map[string]any{"x": 1}
	assert.NotEqual(t, a.Snapshot(), c.Snapshot())

	var nilCfg *Config
	assert.Empty(t, nilCfg.Snapshot())
}

func TestNormalizeLogSettings(t *testing.T) {
	assert.Equal(t, LogLevelWarn, NormalizeLogLevel("WARNING"))
	assert.Equal(t, LogLevelInfo, NormalizeLogLevel("verbose"))
	assert.Equal(t, LogFormatText, NormalizeLogFormat("xml"))
	assert.Equal(t, "DEBUG", LogLevelDebug.SlogLevel().String())
}
