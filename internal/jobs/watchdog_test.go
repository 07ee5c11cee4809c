package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ananth-NQI/wa-group-importer/internal/models"
)

type fakeSession struct {
	mu        sync.Mutex
	state     models.SessionState
	recovered int
}

func (f *fakeSession) Snapshot() models.SessionSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.SessionSnapshot{State: f.state}
}

func (f *fakeSession) Recover(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recovered++
	f.state = models.SessionReady
	return nil
}

func (f *fakeSession) Recovered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recovered
}

func TestWatchdogRecoversDisconnectedSession(t *testing.T) {
	t.Parallel()

	session := &fakeSession{state: models.SessionDisconnected}
	w := NewSessionWatchdog(session, 5*time.Millisecond)
	w.Start(context.Background())
	defer w.Stop()

	assert.Eventually(t, func() bool { return session.Recovered() == 1 }, time.Second, 5*time.Millisecond)

	// once ready it is left alone
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, session.Recovered())
}

func TestWatchdogIgnoresPendingScan(t *testing.T) {
	t.Parallel()

	session := &fakeSession{state: models.SessionAwaitingCredential}
	w := NewSessionWatchdog(session, 5*time.Millisecond)
	w.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	w.Stop()

	assert.Zero(t, session.Recovered())
}

func TestWatchdogStartStopAreIdempotent(t *testing.T) {
	t.Parallel()

	w := NewSessionWatchdog(&fakeSession{}, time.Hour)
	w.Start(context.Background())
	w.Start(context.Background())
	w.Stop()
	w.Stop()

	disabled := NewSessionWatchdog(&fakeSession{}, 0)
	disabled.Start(context.Background())
	disabled.Stop()
}
