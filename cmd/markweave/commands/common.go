// Package commands implements the markweave command line.
package commands

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/markweave/internal/build"
	"git.home.luguber.info/inful/markweave/internal/config"
	ferrors "git.home.luguber.info/inful/markweave/internal/foundation/errors"
	"git.home.luguber.info/inful/markweave/internal/metrics"
	"git.home.luguber.info/inful/markweave/internal/preprocess"
)

// Global carries state shared by every command.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"markweave.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Render RenderCmd `cmd:"" help:"Render one document to a Svelte component"`
	Build  BuildCmd  `cmd:"" help:"Render every document of a directory"`
	Check  CheckCmd  `cmd:"" help:"Validate documents without writing output"`
	Watch  WatchCmd  `cmd:"" help:"Rebuild documents as they change"`
	Init   InitCmd   `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once. The project's
// logging settings refine it when a command loads the configuration.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = newLogger(os.Stderr, level, config.LogFormatText)
	if g.Stdout == nil {
		g.Stdout = os.Stdout
	}
	slog.SetDefault(g.Logger)
	return nil
}

func newLogger(w io.Writer, level slog.Level, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// project is a loaded configuration and the directory it governs. configPath
// is set even when the default file does not exist yet, so watch can pick it
// up once created.
type project struct {
	root       string
	configPath string
	cfg        *config.Config
}

// loadProject loads the configuration file. A missing file at the default
// location means a project without configuration rooted at the working
// directory.
func loadProject(g *Global, root *CLI) (*project, error) {
	path, err := filepath.Abs(root.Config)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "cannot resolve configuration path").Build()
	}

	p := &project{root: filepath.Dir(path), configPath: path}
	if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) && root.Config == config.DefaultFilename {
		p.cfg = config.Default()
	} else {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "cannot load configuration").
				WithContext("path", path).
				Build()
		}
		p.cfg = cfg
	}

	if !root.Verbose {
		g.Logger = newLogger(os.Stderr, p.cfg.Logging.Level.SlogLevel(), p.cfg.Logging.Format)
		slog.SetDefault(g.Logger)
	}
	return p, nil
}

func (p *project) preprocessor(g *Global, rec metrics.Recorder) *preprocess.Preprocessor {
	return preprocess.New(p.cfg.PreprocessOptions(p.root),
		preprocess.WithLogger(g.Logger),
		preprocess.WithRecorder(rec))
}

// resolve interprets path relative to the project root.
func (p *project) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(p.root, path)
}

// request builds a build request for the source directory dir, which is
// relative to the working directory.
func (p *project) request(dir string) (build.Request, error) {
	src, err := filepath.Abs(dir)
	if err != nil {
		return build.Request{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot resolve source directory").Build()
	}
	return build.Request{
		SourceDir:       src,
		OutputDir:       p.resolve(p.cfg.Output.Directory),
		OutputExtension: p.cfg.Output.Extension,
		ManifestPath:    p.resolve(p.cfg.Output.Manifest),
		ConfigHash:      p.cfg.Snapshot(),
		Concurrency:     p.cfg.Build.Concurrency,
	}, nil
}
