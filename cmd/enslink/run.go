package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the analysis server and stream its events",
	Long: `Connect to the project's analysis server and keep draining its
events to the console until interrupted. Diagnostics, symbol
information, and other responses are printed as they arrive.`,
	Args: cobra.NoArgs,
	RunE: runSession,
}

func runSession(cmd *cobra.Command, args []string) error {
	sess, err := newSession(cmd, "")
	if err != nil {
		return err
	}
	defer sess.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ensureServer(ctx, cmd, sess); err != nil {
		return err
	}
	if !sess.engine.Setup(ctx, false) {
		return errors.New("could not connect to the analysis server")
	}

	for sess.engine.Running() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		sess.engine.Drain(250*time.Millisecond, true)
	}
	return nil
}

// ensureServer launches the server when --start-server is set and waits
// for readiness up to --ready-timeout.
func ensureServer(ctx context.Context, cmd *cobra.Command, sess *session) error {
	start, err := cmd.Flags().GetBool("start-server")
	if err != nil {
		return err
	}
	if start && !sess.server.IsReady() {
		if err := sess.server.Launch(); err != nil {
			return err
		}
	}

	timeout, err := cmd.Flags().GetDuration("ready-timeout")
	if err != nil {
		return err
	}
	if timeout <= 0 {
		return nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return sess.server.WaitReady(waitCtx)
}
