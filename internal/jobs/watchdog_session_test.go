package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/wa-group-importer/internal/events"
	"github.com/Ananth-NQI/wa-group-importer/internal/models"
	"github.com/Ananth-NQI/wa-group-importer/internal/services"
	"github.com/Ananth-NQI/wa-group-importer/internal/whatsapp"
)

// flakyClient fails Connect while the network is down, then reports ready
type flakyClient struct {
	handler whatsapp.EventHandler
	down    bool
}

func (c *flakyClient) Connect(ctx context.Context) error {
	if c.down {
		return errors.New("dial tcp: network is unreachable")
	}
	c.handler(whatsapp.LifecycleEvent{Kind: whatsapp.EventReady})
	return nil
}

func (c *flakyClient) Logout(ctx context.Context) error { return nil }
func (c *flakyClient) Close() error { return nil }

func (c *flakyClient) Groups(ctx context.Context) ([]models.Group, error) { return nil, nil }

func (c *flakyClient) Chat(ctx context.Context, id string) (whatsapp.Chat, error) {
	return whatsapp.Chat{}, nil
}

func (c *flakyClient) AddParticipant(ctx context.Context, groupID, participantID string) error {
	return nil
}

type flakyNetwork struct {
	mu    sync.Mutex
	calls int
}

func (n *flakyNetwork) Build(handler whatsapp.EventHandler) (whatsapp.Client, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	return &flakyClient{handler: handler, down: n.calls == 1}, nil
}

func (n *flakyNetwork) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

type nopCreds struct{}

func (nopCreds) Erase() error { return nil }
func (nopCreds) Location() string { return "/tmp/watchdog-session" }

func TestWatchdogRetriesFailedStartup(t *testing.T) {
	t.Parallel()

	network := &flakyNetwork{}
	sessions := services.NewSessionManager(network.Build, nopCreds{},
		events.PublisherFunc(func(events.Event) {}), services.SessionOptions{})

	require.Error(t, sessions.Initialize(context.Background()))
	require.Equal(t, models.SessionDisconnected, sessions.Snapshot().State)

	w := NewSessionWatchdog(sessions, 10*time.Millisecond)
	w.Start(context.Background())
	defer w.Stop()

	assert.Eventually(t, func() bool {
		return sessions.Snapshot().Ready()
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, network.Calls())
}
