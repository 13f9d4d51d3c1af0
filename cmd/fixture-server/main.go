package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/terramuse/videocheck/internal/cli"
	"github.com/terramuse/videocheck/internal/fixture"
)

func main() {
	cmd := &cobra.Command{
		Use:   "fixture-server",
		Short: "Serve a stand-in TerraMuse home page for videocheck",
		Long: `Serve a page with a "Watch the Film" button and a video modal on localhost.
POST /_state with {"video_id", "hide_button", "omit_src", "never_open"} to change it,
POST /_reset to restore the defaults.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         serve,
	}
	cmd.Flags().Int("port", 3000, "Port to run the server on")
	cmd.Flags().String("video-id", fixture.DefaultVideoID, "Video id embedded in the modal")
	cmd.Flags().Bool("debug", false, "Log every request")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(cmd *cobra.Command, args []string) error {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		_ = os.Setenv(cli.LogEnv, "DEBUG")
	}
	cli.InitLogging()
	logger := cli.Logger

	port, _ := cmd.Flags().GetInt("port")
	videoID, _ := cmd.Flags().GetString("video-id")

	handler := fixture.NewServer(logger)
	state := fixture.DefaultState()
	state.VideoID = videoID
	handler.SetState(state)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting fixture server", "port", port, "video_id", videoID)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("server failed", "error", err)
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down fixture server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Debug("fixture server stopped")
	return nil
}
