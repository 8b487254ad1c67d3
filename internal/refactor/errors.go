package refactor

import "errors"

// Standard errors returned by the refactor package.
var (
	// ErrPatchMissing indicates the external patch utility is unavailable.
	ErrPatchMissing = errors.New("patch utility not found")

	// ErrApplyFailed indicates patch exited non-zero. The failure is
	// recoverable: the user has been notified and the file reloaded.
	ErrApplyFailed = errors.New("refactoring could not be applied")
)
