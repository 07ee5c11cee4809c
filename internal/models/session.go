package models

import "time"

// SessionState is the lifecycle state of the WhatsApp backend session
type SessionState string

const (
	SessionUninitialized      SessionState = "UNINITIALIZED"
	SessionAwaitingCredential SessionState = "AWAITING_CREDENTIAL"
	SessionReady              SessionState = "READY"
	SessionDisconnected       SessionState = "DISCONNECTED"
)

// SessionSnapshot is a read-only copy of the session handed to callers
type SessionSnapshot struct {
	State     SessionState `json:"state"`
	QRImage   string       `json:"qr_image,omitempty"` // PNG data URL, only while awaiting a scan
	UpdatedAt time.Time    `json:"updated_at"`
}

// Ready reports whether the session can be used for backend calls
func (s SessionSnapshot) Ready() bool {
	return s.State == SessionReady
}
