package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"QuantCache/internal/cli"
)

func main() {
	app := cli.NewApp()
	app.SetFlags(flag.CommandLine)

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	cli.Register(commander, app)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
