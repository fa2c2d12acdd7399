package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")

	// Session errors. Their text is what ends up in the status error box,
	// hence the capitalised, user-facing wording.
	ErrMissingCredentials    = fmt.Errorf("API credentials not configured")
	ErrAuthenticationFailure = fmt.Errorf("Authentication failure - check your API credentials")
	ErrReconnectFailure      = fmt.Errorf("Failed to reconnect to the relay")
	ErrPublishFailure        = fmt.Errorf("Failed to send message")
	ErrUnknownTransport      = fmt.Errorf("Failed to connect")

	ErrNotConnected   = fmt.Errorf("not connected")
	ErrSessionClosed  = fmt.Errorf("session closed")
	ErrSessionStarted = fmt.Errorf("session already started")

	ErrEmptyRoomName   = fmt.Errorf("Room name cannot be empty")
	ErrInvalidRoomName = fmt.Errorf("Room name must be lowercase alphanumeric only (a-z, 0-9)")
	ErrInvalidUsername = fmt.Errorf("Username must be between 1 and 32 characters")
)
