package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	// Not found errors
	ErrContactNotFound = goerr.New("contact not found")
	ErrRoomNotFound    = goerr.New("room not found")
	ErrGroupNotFound   = goerr.New("group not found in RapidPro")

	// Validation errors
	ErrInvalidInput = goerr.New("invalid input")
	ErrRoomInactive = goerr.New("room is not active")
	ErrNoURN        = goerr.New("remote contact has no URN")

	// Configuration errors
	ErrTaskQueueNotConfigured = goerr.New("task queue is not configured")
)
