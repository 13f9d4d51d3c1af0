package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/terramuse/videocheck/internal/cli"
	_ "github.com/terramuse/videocheck/internal/plugins/chromedp"
	_ "github.com/terramuse/videocheck/internal/plugins/playwright"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		// Check failures have been reported line by line already.
		if !errors.Is(err, cli.ErrChecksFailed) {
			_, _ = color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
