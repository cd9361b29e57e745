package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/google/subcommands"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&infoCmd{}, "")
	subcommands.Register(&tileCmd{}, "")
	subcommands.Register(&boundsCmd{}, "")
	subcommands.Register(&convertCmd{}, "")

	verbose := flag.Bool("v", false, "Log debug records")
	flag.Parse()
	if *verbose {
		logLevel.Set(slog.LevelDebug)
	}
	os.Exit(int(subcommands.Execute(context.Background())))
}
