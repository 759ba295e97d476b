package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docstage/cmd/docstage/commands"
	derrors "git.home.luguber.info/inful/docstage/internal/errors"
	"git.home.luguber.info/inful/docstage/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("docstage"),
		kong.Description("Extract documentation from source modules into markdown artifacts."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	global := &commands.Global{Logger: slog.Default()}
	err := parser.Run(global, cli)
	derrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
}
