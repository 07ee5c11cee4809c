// Package whatsapp wraps the messaging backend behind a small interface so
// the session and import services never touch protocol details.
package whatsapp

import (
	"context"

	"github.com/Ananth-NQI/wa-group-importer/internal/models"
)

// EventKind identifies a lifecycle event pushed by the backend
type EventKind int

const (
	// EventChallenge carries a one-time code to be shown as a QR image
	EventChallenge EventKind = iota + 1
	// EventReady means the session is authenticated and usable
	EventReady
	// EventDisconnected means the connection was lost
	EventDisconnected
	// EventAuthFailure means the credential was rejected or revoked
	EventAuthFailure
)

func (k EventKind) String() string {
	switch k {
	case EventChallenge:
		return "challenge"
	case EventReady:
		return "ready"
	case EventDisconnected:
		return "disconnected"
	case EventAuthFailure:
		return "auth_failure"
	default:
		return "unknown"
	}
}

// LifecycleEvent is delivered asynchronously, possibly from backend goroutines
type LifecycleEvent struct {
	Kind    EventKind
	Payload string // challenge code for EventChallenge
	Reason  string
}

// EventHandler receives lifecycle events for one client
type EventHandler func(LifecycleEvent)

// Chat is a resolved conversation
type Chat struct {
	ID      string
	Name    string
	IsGroup bool
}

// Client is one connection to the messaging backend.
type Client interface {
	// Connect starts the handshake. Challenge and ready events follow
	// through the handler the client was built with.
	Connect(ctx context.Context) error
	Logout(ctx context.Context) error
	// Close tears the connection down without logging out
	Close() error

	Groups(ctx context.Context) ([]models.Group, error)
	Chat(ctx context.Context, id string) (Chat, error)
	AddParticipant(ctx context.Context, groupID, participantID string) error
}

// Factory builds a fresh client bound to the local credential store
type Factory func(handler EventHandler) (Client, error)

// CredentialStore is the on-disk state that lets a session survive restarts
type CredentialStore interface {
	Erase() error
	Location() string
}
