// Package events fans session and import events out to observers.
package events

import "time"

// Event types pushed to observers
const (
	TypeQRImage         = "qr_image"
	TypeReady           = "ready"
	TypeDisconnected    = "disconnected"
	TypeReconnecting    = "reconnecting"
	TypeGroups          = "groups"
	TypeGroupsError     = "groups_error"
	TypeImportStarted   = "import_started"
	TypeProgress        = "progress"
	TypeLog             = "log"
	TypeImportFinished  = "import_finished"
	TypeImportError     = "import_error"
	TypeImportCancelled = "import_cancelled"
)

// Log entry kinds carried by TypeLog events
const (
	LogSuccess = "success"
	LogError   = "error"
	LogWait    = "wait"
	LogDone    = "done"
)

// Event is a single observer notification
type Event struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

// New stamps an event with the current time
func New(eventType string, payload any) Event {
	return Event{Type: eventType, Payload: payload, At: time.Now()}
}

// LogEntry is the payload of TypeLog events
type LogEntry struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ImportStarted is the payload of TypeImportStarted events
type ImportStarted struct {
	JobID     string   `json:"jobId"`
	Total     int      `json:"total"`
	GroupName string   `json:"groupName"`
	Numbers   []string `json:"numbers"`
}

// ImportFinished is the payload of TypeImportFinished events
type ImportFinished struct {
	JobID   string `json:"jobId"`
	Success int    `json:"success"`
	Failed  int    `json:"failed"`
	Total   int    `json:"total"`
}

// ImportCancelled is the payload of TypeImportCancelled events
type ImportCancelled struct {
	JobID     string `json:"jobId"`
	Success   int    `json:"success"`
	Failed    int    `json:"failed"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
}

// Publisher is implemented by anything events can be pushed into
type Publisher interface {
	Publish(Event)
}

// PublisherFunc adapts a function to Publisher
type PublisherFunc func(Event)

// Publish calls f(evt)
func (f PublisherFunc) Publish(evt Event) {
	f(evt)
}
