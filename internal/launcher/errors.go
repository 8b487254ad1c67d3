package launcher

import "errors"

// Standard errors returned by the launcher package.
var (
	// ErrNoConfig indicates no project config file was found walking up
	// from the starting directory.
	ErrNoConfig = errors.New("no project config found")

	// ErrNoCommand indicates the config does not specify a server command.
	ErrNoCommand = errors.New("no server command configured")

	// ErrNotReady indicates the server has not published its port yet.
	ErrNotReady = errors.New("server not ready")
)
