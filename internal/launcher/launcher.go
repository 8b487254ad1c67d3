// Package launcher manages the analysis-server child process and the
// readiness probe the engine gates its connection on.
//
// The server signals readiness by writing its HTTP port to a file in the
// project cache directory. IsReady and HTTPPort read that file; WaitReady
// watches the cache directory so callers can block until the server comes
// up without polling hot.
package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Launcher is the process collaborator consumed by the engine.
type Launcher interface {
	// IsReady reports whether the server can accept connections.
	IsReady() bool
	// HTTPPort returns the port the server listens on.
	HTTPPort() (int, error)
	// Stop terminates the server process.
	Stop() error
}

// ServerProcess launches and supervises one analysis-server instance.
type ServerProcess struct {
	cfg *ProjectConfig
	log *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	aborted bool
}

// NewServerProcess creates a launcher for the configured project.
func NewServerProcess(cfg *ProjectConfig, log *slog.Logger) *ServerProcess {
	if log == nil {
		log = slog.Default()
	}
	return &ServerProcess{cfg: cfg, log: log}
}

// Launch starts the server process if it is not already running. The
// server's output is captured in the cache directory.
func (s *ServerProcess) Launch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd != nil {
		return nil
	}
	if s.cfg.Command == "" {
		return ErrNoCommand
	}
	if err := os.MkdirAll(s.cfg.CacheDir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	out, err := os.Create(filepath.Join(s.cfg.CacheDir, "server.log"))
	if err != nil {
		return fmt.Errorf("create server log: %w", err)
	}

	cmd := exec.Command(s.cfg.Command, s.cfg.Args...)
	cmd.Dir = s.cfg.RootDir
	cmd.Stdout = out
	cmd.Stderr = out
	if s.cfg.JavaHome != "" {
		cmd.Env = append(os.Environ(), "JAVA_HOME="+s.cfg.JavaHome)
	}
	if err := cmd.Start(); err != nil {
		out.Close()
		return fmt.Errorf("start server: %w", err)
	}
	s.cmd = cmd
	s.log.Info("server launched", "command", s.cfg.Command, "pid", cmd.Process.Pid)

	go func() {
		err := cmd.Wait()
		out.Close()
		s.mu.Lock()
		running := s.cmd != nil
		s.cmd = nil
		if running && err != nil {
			s.aborted = true
		}
		s.mu.Unlock()
		if err != nil {
			s.log.Warn("server exited", "error", err)
		}
	}()
	return nil
}

// IsReady reports whether the port file exists and holds a usable port.
func (s *ServerProcess) IsReady() bool {
	_, err := s.HTTPPort()
	return err == nil
}

// HTTPPort reads the server's published port from the cache directory.
func (s *ServerProcess) HTTPPort() (int, error) {
	data, err := os.ReadFile(s.cfg.PortFile())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	port, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || port <= 0 {
		return 0, fmt.Errorf("%w: bad port file %q", ErrNotReady, strings.TrimSpace(string(data)))
	}
	return port, nil
}

// IsRunning reports whether the child process is alive.
func (s *ServerProcess) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cmd != nil
}

// Aborted reports whether the child exited with an error.
func (s *ServerProcess) Aborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted
}

// Stop terminates the server process and removes the stale port file.
func (s *ServerProcess) Stop() error {
	s.mu.Lock()
	cmd := s.cmd
	s.cmd = nil
	s.mu.Unlock()

	os.Remove(s.cfg.PortFile())
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	s.log.Info("stopping server", "pid", cmd.Process.Pid)
	return cmd.Process.Kill()
}

// WaitReady blocks until the server publishes its port or ctx expires.
// It watches the cache directory for the port file to appear and falls
// back to a coarse ticker in case the create event is missed.
func (s *ServerProcess) WaitReady(ctx context.Context) error {
	if s.IsReady() {
		return nil
	}
	if err := os.MkdirAll(s.cfg.CacheDir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch cache dir: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(s.cfg.CacheDir); err != nil {
		return fmt.Errorf("watch cache dir: %w", err)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		if s.IsReady() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrNotReady, ctx.Err())
		case <-watcher.Events:
			// Any change in the cache dir re-checks readiness.
		case err := <-watcher.Errors:
			s.log.Warn("cache dir watch error", "error", err)
		case <-ticker.C:
		}
	}
}
