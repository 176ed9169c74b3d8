package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/idilsaglam/shoplist/internal/cli"
	"github.com/idilsaglam/shoplist/internal/config"
	"github.com/idilsaglam/shoplist/internal/shopping"
	"github.com/idilsaglam/shoplist/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()

	// Root flags (apply to every subcommand); env values are the defaults.
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "database file (env SHOPLIST_DB)")
	flag.StringVar(&cfg.Backend, "backend", cfg.Backend, "storage backend: sqlite|json (env SHOPLIST_BACKEND)")
	flag.StringVar(&cfg.Theme, "theme", cfg.Theme, "classic|neon|mono (env SHOPLIST_THEME)")
	flag.StringVar(&cfg.Sort, "sort", cfg.Sort, "default view order: name|added (env SHOPLIST_SORT)")
	flag.StringVar(&cfg.Order, "order", cfg.Order, "default view direction: asc|desc (env SHOPLIST_ORDER)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug|info|warn|error (env SHOPLIST_LOG_LEVEL)")
	group := flag.Bool("group", false, "group ls output by to-buy/bought")
	noColor := flag.Bool("no-color", false, "disable colors")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		ui.Fail(os.Stderr, err.Error())
		return cli.ExitUsage
	}
	ui.SetTheme(cfg.Theme)
	if *noColor {
		ui.SetColorForcing(false, true)
	}

	// Hand the remaining args to the CLI runner.
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp(os.Stdout)
		return cli.ExitUsage
	}
	switch args[0] {
	case "help", "-h", "--help":
		cli.PrintHelp(os.Stdout)
		return cli.ExitOK
	}

	logger, closeLog, err := newLogger(cfg, args[0] == "tui")
	if err != nil {
		ui.Fail(os.Stderr, err.Error())
		return cli.ExitError
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st, err := cli.OpenStore(cfg, logger)
	if err != nil {
		ui.Fail(os.Stderr, "open: "+err.Error())
		return cli.ExitError
	}
	defer st.Close()

	list, err := shopping.New(ctx, st, shopping.WithLogger(logger))
	if err != nil {
		ui.Fail(os.Stderr, "load: "+err.Error())
		return cli.ExitError
	}

	field, dir := cfg.View()
	code := cli.Run(ctx, list, args, cli.Options{
		Group: *group,
		Sort:  field,
		Order: dir,
	})
	if code != cli.ExitOK {
		fmt.Fprintln(os.Stderr)
	}
	return code
}

// newLogger writes to SHOPLIST_LOG_FILE when set. Otherwise logs go to
// stderr, except under the full-screen TUI where they are dropped.
func newLogger(cfg config.Config, fullScreen bool) (*slog.Logger, func(), error) {
	lvl, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}
	var out io.Writer = os.Stderr
	closeFn := func() {}
	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closeFn = func() { f.Close() }
	case fullScreen:
		out = io.Discard
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger, closeFn, nil
}
