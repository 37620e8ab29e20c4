package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/markweave/cmd/markweave/commands"
	"git.home.luguber.info/inful/markweave/internal/foundation/errors"
	"git.home.luguber.info/inful/markweave/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{}
	parser := kong.Parse(cli,
		kong.Name("markweave"),
		kong.Description("Render Markdoc documents into Svelte components."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	err := parser.Run(cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
