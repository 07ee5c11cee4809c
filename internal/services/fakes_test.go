package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Ananth-NQI/wa-group-importer/internal/events"
	"github.com/Ananth-NQI/wa-group-importer/internal/models"
	"github.com/Ananth-NQI/wa-group-importer/internal/whatsapp"
)

// fakeClient is a scripted whatsapp.Client
type fakeClient struct {
	handler whatsapp.EventHandler

	// onConnect runs inside Connect; nil emits EventReady
	onConnect func(h whatsapp.EventHandler) error
	groups    []models.Group
	groupsErr error
	chats     map[string]whatsapp.Chat
	chatErr   error
	addErrs   map[string]error
	beforeAdd func(ctx context.Context, participantID string)
	logoutErr error

	mu        sync.Mutex
	added     []string
	closed    bool
	loggedOut bool
}

func (c *fakeClient) Connect(ctx context.Context) error {
	if c.onConnect != nil {
		return c.onConnect(c.handler)
	}
	c.handler(whatsapp.LifecycleEvent{Kind: whatsapp.EventReady})
	return nil
}

func (c *fakeClient) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loggedOut = true
	return c.logoutErr
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClient) Groups(ctx context.Context) ([]models.Group, error) {
	return c.groups, c.groupsErr
}

func (c *fakeClient) Chat(ctx context.Context, id string) (whatsapp.Chat, error) {
	if c.chatErr != nil {
		return whatsapp.Chat{}, c.chatErr
	}
	chat, ok := c.chats[id]
	if !ok {
		return whatsapp.Chat{}, errors.New("chat not found")
	}
	return chat, nil
}

func (c *fakeClient) AddParticipant(ctx context.Context, groupID, participantID string) error {
	if c.beforeAdd != nil {
		c.beforeAdd(ctx, participantID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.added = append(c.added, participantID)
	return c.addErrs[participantID]
}

func (c *fakeClient) Added() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.added...)
}

func (c *fakeClient) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakeFactory hands out prepared clients in order, then plain ready clients
type fakeFactory struct {
	mu      sync.Mutex
	queue   []*fakeClient
	built   []*fakeClient
	failure error
}

func (f *fakeFactory) Build(handler whatsapp.EventHandler) (whatsapp.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failure != nil {
		return nil, f.failure
	}

	var c *fakeClient
	if len(f.queue) > 0 {
		c, f.queue = f.queue[0], f.queue[1:]
	} else {
		c = &fakeClient{}
	}
	c.handler = handler
	f.built = append(f.built, c)
	return c, nil
}

func (f *fakeFactory) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.built)
}

func (f *fakeFactory) Client(i int) *fakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.built[i]
}

type fakeCreds struct {
	mu     sync.Mutex
	erased int
}

func (c *fakeCreds) Erase() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.erased++
	return nil
}

func (c *fakeCreds) Location() string { return "/tmp/fake-session" }

func (c *fakeCreds) Erased() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.erased
}

// recorder collects published events in order
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(evt events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) All() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func (r *recorder) Types() []string {
	var types []string
	for _, evt := range r.All() {
		types = append(types, evt.Type)
	}
	return types
}

func (r *recorder) OfType(eventType string) []events.Event {
	var out []events.Event
	for _, evt := range r.All() {
		if evt.Type == eventType {
			out = append(out, evt)
		}
	}
	return out
}

func (r *recorder) Logs() []events.LogEntry {
	var out []events.LogEntry
	for _, evt := range r.OfType(events.TypeLog) {
		out = append(out, evt.Payload.(events.LogEntry))
	}
	return out
}

type stubEncoder struct {
	err error
}

func (e stubEncoder) Encode(code string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return "data:image/png;base64," + code, nil
}

func newTestSessionManager(factory *fakeFactory, creds *fakeCreds, pub events.Publisher) *SessionManager {
	return NewSessionManager(factory.Build, creds, pub, SessionOptions{
		Encoder:     stubEncoder{},
		SettleDelay: 10 * time.Millisecond,
	})
}
