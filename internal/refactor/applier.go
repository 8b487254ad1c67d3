// Package refactor tracks in-flight refactoring requests and applies the
// diffs the server produces for them.
//
// Refactorings are keyed by a procedure ID, a numbering separate from call
// IDs, so the server's eventual RefactorDiffEffect can be matched back to
// the file it targets. Diffs are applied with the external patch(1)
// utility; a failed patch is recoverable and reported to the user, and the
// file is reloaded regardless so any partial state is visible.
package refactor

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Refactoring kinds the applier knows how to apply. Diffs for other kinds
// are silently ignored.
var supportedKinds = map[string]bool{
	"Rename":          true,
	"InlineLocal":     true,
	"AddImport":       true,
	"OrganizeImports": true,
}

// Surface is the slice of the editor the applier needs: a status line and
// a way to reload the patched file.
type Surface interface {
	RawMessage(text string)
	EditFile(path string)
	CurrentFilePath() string
}

// Runner executes an external command, returning an error on non-zero
// exit. It exists so tests can substitute the patch invocation.
type Runner func(name string, args ...string) error

func execRunner(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// Applier tracks refactor jobs and applies their diffs.
type Applier struct {
	mu      sync.Mutex
	nextID  int64
	jobs    map[int64]string
	scratch string
	runner  Runner
	surface Surface
	failMsg string
	log     *slog.Logger
}

// Option configures an Applier.
type Option func(*Applier)

// WithRunner substitutes the external command runner.
func WithRunner(r Runner) Option {
	return func(a *Applier) {
		a.runner = r
	}
}

// WithLogger sets the applier's logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *Applier) {
		a.log = log
	}
}

// WithFailureMessage sets the message shown when a patch fails to apply.
func WithFailureMessage(msg string) Option {
	return func(a *Applier) {
		a.failMsg = msg
	}
}

// New creates an Applier with a private scratch directory for reject and
// backup files. It fails with ErrPatchMissing when the patch utility is
// not on PATH and no substitute runner was provided.
func New(surface Surface, opts ...Option) (*Applier, error) {
	a := &Applier{
		nextID:  1,
		jobs:    make(map[int64]string),
		surface: surface,
		failMsg: "The refactoring could not be applied (more info at logs)",
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.runner == nil {
		if _, err := exec.LookPath("patch"); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPatchMissing, err)
		}
		a.runner = execRunner
	}

	scratch := filepath.Join(os.TempDir(), "enslink-diffs-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0o700); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	a.scratch = scratch
	return a, nil
}

// Track registers a refactor job targeting file and returns its procedure
// ID for inclusion in the outgoing request.
func (a *Applier) Track(file string) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextID
	a.nextID++
	a.jobs[id] = file
	return id
}

// Pending returns the number of tracked jobs awaiting a diff.
func (a *Applier) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.jobs)
}

// Apply patches the file tracked under procID with the diff at diffPath.
// Unsupported kinds are ignored. A non-zero patch exit is reported as a
// recoverable failure; the target file is reloaded in either case.
func (a *Applier) Apply(procID int64, kind, diffPath string) error {
	if !supportedKinds[kind] {
		a.log.Debug("ignoring unsupported refactoring", "kind", kind)
		return nil
	}

	a.mu.Lock()
	target, ok := a.jobs[procID]
	delete(a.jobs, procID)
	a.mu.Unlock()
	if !ok || target == "" {
		// Older servers do not echo the procedure ID; fall back to the
		// focused file like the request sender did.
		target = a.surface.CurrentFilePath()
	}

	reject := filepath.Join(a.scratch, filepath.Base(target)+".rej")
	args := []string{
		"--reject-file=" + reject,
		"--prefix=" + a.scratch + string(os.PathSeparator),
		target,
		diffPath,
	}

	err := a.runner("patch", args...)
	if err != nil {
		a.log.Warn("patch failed", "file", target, "diff", diffPath, "error", err)
		a.surface.RawMessage(a.failMsg)
	}

	// Reload regardless so partial application is visible.
	a.surface.EditFile(target)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrApplyFailed, err)
	}
	return nil
}

// Close removes the scratch directory.
func (a *Applier) Close() error {
	return os.RemoveAll(a.scratch)
}
