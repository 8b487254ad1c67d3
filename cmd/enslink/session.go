package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/enslink/internal/diagnostics"
	"github.com/dshills/enslink/internal/editor"
	"github.com/dshills/enslink/internal/engine"
	"github.com/dshills/enslink/internal/handler"
	"github.com/dshills/enslink/internal/launcher"
	"github.com/dshills/enslink/internal/refactor"
)

// session bundles one fully wired editor-to-server bridge for CLI use.
type session struct {
	cfg      *launcher.ProjectConfig
	log      *slog.Logger
	logFile  *os.File
	console  *editor.Console
	server   *launcher.ServerProcess
	diag     *diagnostics.Buffer
	applier  *refactor.Applier
	handlers *handler.Handlers
	engine   *engine.Engine

	stopServer bool
}

// newSession loads the project config and wires the full stack around a
// console editor surface. focusFile becomes the console's current file;
// empty is fine for commands that do not act on one.
func newSession(cmd *cobra.Command, focusFile string) (*session, error) {
	cfg, err := loadProject(cmd)
	if err != nil {
		return nil, err
	}
	log, logFile, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	var consoleOpts []editor.ConsoleOption
	if focusFile != "" {
		consoleOpts = append(consoleOpts, editor.WithConsoleFile(focusFile))
	}
	consoleOpts = append(consoleOpts, editor.WithConsoleInput(os.Stdin))
	console := editor.NewConsole(os.Stdout, consoleOpts...)

	server := launcher.NewServerProcess(cfg, log)
	diag := diagnostics.New(console, log)

	applier, err := refactor.New(console,
		refactor.WithLogger(log),
		refactor.WithFailureMessage(editor.NoticeFailedRefactoring))
	if err != nil {
		if !errors.Is(err, refactor.ErrPatchMissing) {
			logFile.Close()
			return nil, err
		}
		// Refactor diffs will be reported instead of applied.
		log.Warn("patch utility not found, refactorings disabled")
		applier = nil
	}

	registry := handler.NewRegistry(console, cfg.ScalaVersion, log)
	eng := engine.New(engine.Deps{
		Editor:   console,
		Launcher: server,
		Registry: registry,
		Diag:     diag,
		Log:      log,
	})

	var patcher handler.Patcher
	if applier != nil {
		patcher = applier
	}
	handlers := handler.New(handler.Deps{
		Editor:    console,
		Calls:     eng,
		Requester: eng,
		Notes:     diag,
		Patcher:   patcher,
		Ports:     server,
		Log:       log,
	})
	handlers.RegisterAll(registry)

	stopServer, _ := cmd.Flags().GetBool("start-server")
	return &session{
		cfg:        cfg,
		log:        log,
		logFile:    logFile,
		console:    console,
		server:     server,
		diag:       diag,
		applier:    applier,
		handlers:   handlers,
		engine:     eng,
		stopServer: stopServer,
	}, nil
}

// close tears the session down. The server is stopped only when this
// session started it.
func (s *session) close() {
	s.engine.Teardown(s.stopServer)
	s.handlers.Close()
	if s.applier != nil {
		if err := s.applier.Close(); err != nil {
			s.log.Warn("close applier", "error", err)
		}
	}
	s.logFile.Close()
}

// loadProject resolves the project config from --config or by walking
// upwards from the working directory.
func loadProject(cmd *cobra.Command) (*launcher.ProjectConfig, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		path, err = launcher.FindConfig(cwd)
		if err != nil {
			return nil, fmt.Errorf("locate project config: %w", err)
		}
	}
	return launcher.LoadConfig(path)
}

// newLogger opens the project log file in the cache directory. The level
// is Info unless ENSLINK_DEBUG is set.
func newLogger(cfg *launcher.ProjectConfig) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create cache dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(cfg.CacheDir, "enslink.log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	level := slog.LevelInfo
	if os.Getenv("ENSLINK_DEBUG") != "" {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return log, f, nil
}
