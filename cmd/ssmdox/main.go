package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/cgast/ssmdox/internal/cli"
	"github.com/cgast/ssmdox/internal/config"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses args, executes the selected command and returns the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var c CLI
	exited := -1
	parser, err := newParser(&c, stdout, stderr, func(code int) { exited = code })
	if err != nil {
		fmt.Fprintln(stderr, err)
		return cli.ExitFailure
	}
	kctx, err := parser.Parse(args)
	if exited >= 0 {
		return exited
	}
	if err != nil {
		parser.Errorf("%s", err)
		return cli.ExitFailure
	}

	g, err := c.setup(ctx, stdout, stderr)
	adapter := cli.NewErrorAdapter(c.Verbose, g.Logger)
	if err != nil {
		return adapter.Handle(stderr, err)
	}
	defer g.Close()

	return adapter.Handle(stderr, kctx.Run(g))
}

func newParser(c *CLI, stdout, stderr io.Writer, exit func(int)) (*kong.Kong, error) {
	return kong.New(c,
		kong.Name("ssmdox"),
		kong.Description("Build and check automation documents from YAML sources."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Vars{"version": version, "config_path": config.DefaultPath},
		kong.Exit(exit),
	)
}
