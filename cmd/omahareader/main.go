package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Serve   ServeCmd         `cmd:"" help:"Poll table captures and serve the read model"`
	Segment SegmentCmd       `cmd:"" help:"Split per-seat actions into streets"`
	Watch   WatchCmd         `cmd:"" help:"Follow a running server in the terminal"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("omahareader"),
		kong.Description("Reconciles Omaha table detections into live per-table game state"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
