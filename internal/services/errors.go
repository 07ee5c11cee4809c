package services

import "errors"

var (
	ErrSessionNotReady  = errors.New("Client not ready.")
	ErrSessionExpired   = errors.New("Session expired. Reconnecting...")
	ErrNoValidNumbers   = errors.New("No valid numbers found after cleaning.")
	ErrGroupRequired    = errors.New("Group ID is required.")
	ErrGroupNotFound    = errors.New("Could not find group")
	ErrNotAGroup        = errors.New("Not a group.")
	ErrImportInProgress = errors.New("an import is already running")
	ErrNoActiveImport   = errors.New("no import is running")
)
