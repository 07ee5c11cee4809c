package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ananth-NQI/wa-group-importer/internal/models"
)

// Session is the part of SessionManager the watchdog drives
type Session interface {
	Snapshot() models.SessionSnapshot
	Recover(ctx context.Context) error
}

// SessionWatchdog periodically re-initializes a session that dropped to
// DISCONNECTED or never came up at startup.
type SessionWatchdog struct {
	session  Session
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSessionWatchdog creates a watchdog checking every interval
func NewSessionWatchdog(session Session, interval time.Duration) *SessionWatchdog {
	return &SessionWatchdog{
		session:  session,
		interval: interval,
	}
}

// Start begins the periodic check. It is a no-op if already running or
// the interval is zero.
func (w *SessionWatchdog) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		log.Debug().Msg("session watchdog already running")
		return
	}
	if w.interval <= 0 {
		log.Info().Msg("session watchdog disabled")
		return
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.loop(ctx, w.done)

	log.Info().Dur("interval", w.interval).Msg("⏱️ Session watchdog started")
}

// Stop halts the watchdog and waits for an in-flight check to return
func (w *SessionWatchdog) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Info().Msg("⏹️ Session watchdog stopped")
}

func (w *SessionWatchdog) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

// check reconnects only a DISCONNECTED session; a pending QR scan is left alone
func (w *SessionWatchdog) check(ctx context.Context) {
	snap := w.session.Snapshot()
	if snap.State != models.SessionDisconnected {
		return
	}

	log.Warn().Time("since", snap.UpdatedAt).Msg("🔄 Session disconnected, reconnecting")
	if err := w.session.Recover(ctx); err != nil {
		log.Error().Err(err).Msg("watchdog reconnect failed")
	}
}
