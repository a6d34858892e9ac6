package relay

import "errors"

// Sentinel errors for relay operations.
var (
	// ErrRoomNotFound is returned when a private room identifier does not
	// match any live room, including rooms deleted concurrently.
	ErrRoomNotFound = errors.New("room not found")

	// ErrAlreadyNamed is returned when a connection attempts to set its
	// display name a second time.
	ErrAlreadyNamed = errors.New("display name already set")

	// ErrUnknownConnection is returned for operations against an identity
	// that was never bound or has already been removed.
	ErrUnknownConnection = errors.New("unknown connection")
)
