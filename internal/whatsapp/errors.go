package whatsapp

import (
	"errors"
	"strings"
)

var (
	// ErrSessionLost is session-fatal: the connection or its execution
	// context is gone and the session has to be re-initialized.
	ErrSessionLost = errors.New("whatsapp session lost")
	// ErrBackendBusy is transient: another backend instance holds the local
	// credential store. Clearing the store and retrying once may succeed.
	ErrBackendBusy = errors.New("whatsapp backend busy")
)

// classifiedError keeps the original message while matching a sentinel
type classifiedError struct {
	kind  error
	cause error
}

func (e *classifiedError) Error() string {
	return e.cause.Error()
}

func (e *classifiedError) Unwrap() []error {
	return []error{e.kind, e.cause}
}

// Mark tags err with kind so errors.Is(err, kind) holds
func Mark(err, kind error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kind) {
		return err
	}
	return &classifiedError{kind: kind, cause: err}
}

var (
	sessionLostMarkers = []string{"detached", "target closed", "websocket disconnected", "not connected", "not logged in"}
	busyMarkers        = []string{"already running", "database is locked"}
)

// Classify maps an untyped backend error onto the taxonomy by its message.
// Adapters call it for errors that carry no typed sentinel.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSessionLost) || errors.Is(err, ErrBackendBusy) {
		return err
	}

	msg := strings.ToLower(err.Error())
	for _, m := range busyMarkers {
		if strings.Contains(msg, m) {
			return Mark(err, ErrBackendBusy)
		}
	}
	for _, m := range sessionLostMarkers {
		if strings.Contains(msg, m) {
			return Mark(err, ErrSessionLost)
		}
	}
	return err
}

// IsSessionFatal reports whether err requires re-initializing the session
func IsSessionFatal(err error) bool {
	return errors.Is(err, ErrSessionLost)
}

// IsTransient reports whether initialization may succeed after clearing the
// credential store. A detached context during start-up counts as well.
func IsTransient(err error) bool {
	return errors.Is(err, ErrBackendBusy) || errors.Is(err, ErrSessionLost)
}
