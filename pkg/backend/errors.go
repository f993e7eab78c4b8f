package backend

import "errors"

var (
	// ErrNotStarted is returned by Stop when the server was never started.
	ErrNotStarted = errors.New("server not started")

	// ErrAlreadyStarted is returned by Start on a server that is already
	// listening.
	ErrAlreadyStarted = errors.New("server already started")
)
