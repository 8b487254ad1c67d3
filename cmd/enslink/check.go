package main

import (
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file>...",
	Short: "Typecheck files and report notes",
	Long: `Send the given source files to the analysis server for a typecheck,
print every note it reports, and exit non-zero when errors are found.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Duration("timeout", 60*time.Second, "maximum time to wait for typecheck results")
}

func runCheck(cmd *cobra.Command, args []string) error {
	files := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", arg, err)
		}
		files = append(files, abs)
	}

	sess, err := newSession(cmd, files[0])
	if err != nil {
		return err
	}
	defer sess.close()

	ctx, stopSignals := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	if err := ensureServer(ctx, cmd, sess); err != nil {
		return err
	}
	if !sess.engine.Setup(ctx, false) {
		return errors.New("could not connect to the analysis server")
	}

	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}

	sess.engine.TypecheckFiles(files...)

	deadline := time.Now().Add(timeout)
	for sess.diag.Buffering() {
		if time.Now().After(deadline) {
			return fmt.Errorf("typecheck did not complete within %s", timeout)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sess.engine.Drain(time.Second, true)
	}

	errs, warns := sess.console.ErrorCount(), sess.console.WarningCount()
	switch {
	case errs > 0:
		color.New(color.FgRed).Printf("%d error(s), %d warning(s)\n", errs, warns)
		return fmt.Errorf("typecheck found %d error(s)", errs)
	case warns > 0:
		color.New(color.FgYellow).Printf("0 errors, %d warning(s)\n", warns)
	default:
		color.New(color.FgGreen).Println("no problems found")
	}
	return nil
}
