package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/tagforge/internal/app"
	"github.com/vk/tagforge/internal/cli"
	"github.com/vk/tagforge/internal/hcl"
	"github.com/vk/tagforge/internal/registry"
)

// main is the entrypoint for the tagforge command.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run parses args and runs the app. Output goes to outW and logs to logW.
// With no modules the app registers its core modules.
func run(outW, logW io.Writer, args []string, modules ...registry.Module) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// NewApp panics on an invalid module set.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked | %v", r)
		}
	}()

	a := app.NewApp(outW, logW, appConfig, hcl.NewLoader(), hcl.NewConverter(), modules...)
	return a.Run(context.Background())
}
