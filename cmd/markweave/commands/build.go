package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/markweave/internal/build"
	"git.home.luguber.info/inful/markweave/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Dir         string `arg:"" optional:"" help:"Source directory" default:"." type:"existingdir"`
	Output      string `short:"o" help:"Override output.directory"`
	Force       bool   `short:"f" help:"Rebuild documents even when unchanged"`
	DryRun      bool   `name:"dry-run" help:"Process documents without writing anything"`
	Concurrency int    `short:"j" help:"Override build.concurrency"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	p, err := loadProject(g, root)
	if err != nil {
		return err
	}
	req, err := p.request(b.Dir)
	if err != nil {
		return err
	}
	if b.Output != "" {
		req.OutputDir = p.resolve(b.Output)
	}
	if b.Concurrency > 0 {
		req.Concurrency = b.Concurrency
	}
	req.Force = b.Force
	req.DryRun = b.DryRun

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	builder := build.NewBuilder(p.preprocessor(g, metrics.NoopRecorder{}), build.WithLogger(g.Logger))
	res, err := builder.Run(ctx, req)
	if res != nil {
		_, _ = fmt.Fprintf(g.Stdout, "Built %d, skipped %d, failed %d documents in %s\n",
			res.Built, res.Skipped, res.Failed, res.Duration.Round(time.Millisecond))
	}
	return err
}
