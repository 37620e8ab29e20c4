package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/markweave/internal/build"
	"git.home.luguber.info/inful/markweave/internal/discovery"
	"git.home.luguber.info/inful/markweave/internal/logfields"
	"git.home.luguber.info/inful/markweave/internal/metrics"
	"git.home.luguber.info/inful/markweave/internal/preprocess"
	"git.home.luguber.info/inful/markweave/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Dir      string        `arg:"" optional:"" help:"Source directory" default:"." type:"existingdir"`
	Debounce time.Duration `help:"Wait this long for changes to settle" default:"300ms"`
	Listen   string        `help:"Serve Prometheus metrics on this address (overrides metrics.listen)"`
}

// session holds the state a watch run rebuilds from. Handler calls are
// sequential, so it needs no locking.
type session struct {
	g        *Global
	root     *CLI
	dir      string
	project  *project
	pre      *preprocess.Preprocessor
	builder  *build.Builder
	recorder metrics.Recorder
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	p, err := loadProject(g, root)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	listen := w.Listen
	if listen == "" {
		listen = p.cfg.Metrics.Listen
	}
	if listen != "" {
		reg := prometheus.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		stop := serveMetrics(g.Logger, listen, reg)
		defer stop()
	}

	s := &session{g: g, root: root, dir: w.Dir, recorder: recorder}
	s.use(p)

	req, err := p.request(w.Dir)
	if err != nil {
		return err
	}
	if _, err := s.builder.Run(ctx, req); err != nil {
		g.Logger.Error("Initial build failed", logfields.Error(err))
	}

	roots := []string{req.SourceDir, p.root}
	roots = append(roots, s.configDirs(ctx)...)
	watcher, err := watch.New(roots, s.handle,
		watch.WithDebounce(w.Debounce),
		watch.WithLogger(g.Logger),
		watch.WithIgnore(req.OutputDir, req.ManifestPath))
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}

func (s *session) use(p *project) {
	s.project = p
	s.pre = p.preprocessor(s.g, s.recorder)
	s.builder = build.NewBuilder(s.pre, build.WithLogger(s.g.Logger), build.WithRecorder(s.recorder))
}

// configDirs lists the directories holding schema files and partials.
func (s *session) configDirs(ctx context.Context) []string {
	var dirs []string
	if dir, ok := s.pre.SchemaDirectory(ctx); ok {
		dirs = append(dirs, filepath.FromSlash(dir))
	}
	opts := s.pre.Options()
	if opts.PartialsDirectory != "" {
		dirs = append(dirs, filepath.FromSlash(discovery.Resolve(opts.Root, opts.PartialsDirectory)))
	}
	return dirs
}

func (s *session) handle(ctx context.Context, changed []string) {
	classifier := watch.Classifier{
		ConfigFile: s.project.configPath,
		ConfigDirs: s.configDirs(ctx),
		Handles:    s.pre.Handles,
	}
	plan := classifier.Plan(changed)
	if plan.Empty() {
		return
	}

	if plan.Reload {
		p, err := loadProject(s.g, s.root)
		if err != nil {
			s.g.Logger.Error("Keeping previous configuration", logfields.Error(err))
		} else {
			s.g.Logger.Info("Configuration reloaded", logfields.Path(p.configPath))
			s.use(p)
		}
	}

	req, err := s.project.request(s.dir)
	if err != nil {
		s.g.Logger.Error("Rebuild failed", logfields.Error(err))
		return
	}
	if plan.Full {
		// Schema changes can add dependencies no manifest entry knows about.
		req.Force = true
	} else {
		req.Files = plan.Files
	}
	if _, err := s.builder.Run(ctx, req); err != nil {
		s.g.Logger.Error("Rebuild failed", logfields.Error(err))
	}
}

// serveMetrics serves /metrics in the background. The returned func shuts
// the server down and waits for it.
func serveMetrics(logger *slog.Logger, addr string, reg *prometheus.Registry) func() {
	srv := metrics.NewServer(addr, reg)

	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info("Serving metrics", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", logfields.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("Metrics server shutdown failed", logfields.Error(err))
		}
		<-done
	}
}
