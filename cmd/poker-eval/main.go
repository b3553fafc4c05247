package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	LogLevel string           `name:"log-level" default:"info" env:"POKER_EVAL_LOG_LEVEL" help:"Log level (debug, info, warn, error)"`

	Serve  ServeCmd  `cmd:"" help:"Run the WebSocket and HTTP server"`
	Equity EquityCmd `cmd:"" help:"Estimate equity for hole cards and ranges"`
	Narrow NarrowCmd `cmd:"" help:"Narrow a range by equity or preference"`
	Range  RangeCmd  `cmd:"" help:"Show the canonical form and grid of a range"`
}

// globals are handed to every command's Run method.
type globals struct {
	logger *log.Logger
}

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("poker-eval"),
		kong.Description("Monte Carlo hold'em equity and range tools"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)

	logger, err := newLogger(cli.LogLevel)
	ctx.FatalIfErrorf(err)

	err = ctx.Run(&globals{logger: logger})
	ctx.FatalIfErrorf(err)
}

func newLogger(level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           lvl,
	}), nil
}
