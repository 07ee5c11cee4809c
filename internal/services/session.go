package services

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/Ananth-NQI/wa-group-importer/internal/events"
	"github.com/Ananth-NQI/wa-group-importer/internal/models"
	"github.com/Ananth-NQI/wa-group-importer/internal/whatsapp"
)

// DefaultSettleDelay is the pause between erasing credentials and re-initializing
const DefaultSettleDelay = 2 * time.Second

// ChallengeEncoder turns a pairing code into something observers can display
type ChallengeEncoder interface {
	Encode(code string) (string, error)
}

// SessionOptions tune a SessionManager. Zero values pick the defaults.
type SessionOptions struct {
	Encoder     ChallengeEncoder
	SettleDelay time.Duration
	Metrics     *Metrics
}

// SessionManager owns the single WhatsApp session and its state machine
type SessionManager struct {
	factory     whatsapp.Factory
	creds       whatsapp.CredentialStore
	publisher   events.Publisher
	encoder     ChallengeEncoder
	settleDelay time.Duration
	metrics     *Metrics

	// initMu serializes Initialize and LogoutAndReset
	initMu sync.Mutex

	mu         sync.RWMutex
	state      models.SessionState
	qrImage    string
	updatedAt  time.Time
	client     whatsapp.Client
	generation uint64
}

// NewSessionManager creates a session manager. Call Initialize to connect.
func NewSessionManager(factory whatsapp.Factory, creds whatsapp.CredentialStore, publisher events.Publisher, opts SessionOptions) *SessionManager {
	if opts.Encoder == nil {
		opts.Encoder = whatsapp.QREncoder{}
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}

	return &SessionManager{
		factory:     factory,
		creds:       creds,
		publisher:   publisher,
		encoder:     opts.Encoder,
		settleDelay: opts.SettleDelay,
		metrics:     opts.Metrics,
		state:       models.SessionUninitialized,
		updatedAt:   time.Now(),
	}
}

// Initialize tears down any existing client and connects a fresh one.
// A transient failure clears the credential store and is retried once.
func (m *SessionManager) Initialize(ctx context.Context) error {
	m.initMu.Lock()
	defer m.initMu.Unlock()
	return m.initializeLocked(ctx)
}

func (m *SessionManager) initializeLocked(ctx context.Context) error {
	err := m.connect(ctx)
	if err != nil && whatsapp.IsTransient(err) {
		log.Warn().Err(err).Str("store", m.creds.Location()).Msg("⚠️ WhatsApp init failed, clearing session and retrying")
		if eraseErr := m.creds.Erase(); eraseErr != nil {
			log.Error().Err(eraseErr).Msg("failed to clear credential store")
		}
		err = m.connect(ctx)
	}
	if err != nil {
		m.markFailed(err)
	}
	return err
}

// markFailed leaves a session without a client in DISCONNECTED so the
// watchdog picks it up
func (m *SessionManager) markFailed(err error) {
	m.mu.Lock()
	if m.client != nil {
		m.mu.Unlock()
		return
	}
	m.setStateLocked(models.SessionDisconnected, "")
	m.mu.Unlock()

	m.publisher.Publish(events.New(events.TypeDisconnected, err.Error()))
}

func (m *SessionManager) connect(ctx context.Context) error {
	m.mu.Lock()
	old := m.client
	m.client = nil
	m.generation++
	gen := m.generation
	m.setStateLocked(models.SessionUninitialized, "")
	m.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			log.Debug().Err(err).Msg("closing previous client")
		}
	}

	client, err := m.factory(func(evt whatsapp.LifecycleEvent) {
		m.handleEvent(gen, evt)
	})
	if err != nil {
		return errors.Wrap(err, "create whatsapp client")
	}

	m.mu.Lock()
	m.client = client
	m.mu.Unlock()

	if err := client.Connect(ctx); err != nil {
		_ = client.Close()
		m.mu.Lock()
		if m.client == client {
			m.client = nil
		}
		m.mu.Unlock()
		return errors.Wrap(err, "connect whatsapp client")
	}

	log.Info().Str("store", m.creds.Location()).Msg("📱 WhatsApp client initializing")
	return nil
}

func (m *SessionManager) handleEvent(gen uint64, evt whatsapp.LifecycleEvent) {
	var image string
	if evt.Kind == whatsapp.EventChallenge {
		encoded, err := m.encoder.Encode(evt.Payload)
		if err != nil {
			log.Error().Err(err).Msg("failed to encode QR challenge")
			return
		}
		image = encoded
	}

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		log.Debug().Str("event", evt.Kind.String()).Msg("ignoring event from replaced client")
		return
	}

	var out events.Event
	switch evt.Kind {
	case whatsapp.EventChallenge:
		m.setStateLocked(models.SessionAwaitingCredential, image)
		out = events.New(events.TypeQRImage, image)
	case whatsapp.EventReady:
		m.setStateLocked(models.SessionReady, "")
		out = events.New(events.TypeReady, nil)
	case whatsapp.EventDisconnected, whatsapp.EventAuthFailure:
		m.setStateLocked(models.SessionDisconnected, "")
		out = events.New(events.TypeDisconnected, evt.Reason)
	default:
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	switch evt.Kind {
	case whatsapp.EventReady:
		log.Info().Msg("✅ WhatsApp client ready")
	case whatsapp.EventDisconnected, whatsapp.EventAuthFailure:
		log.Warn().Str("kind", evt.Kind.String()).Str("reason", evt.Reason).Msg("❌ WhatsApp client disconnected")
	}
	m.publisher.Publish(out)
}

// setStateLocked must be called with mu held
func (m *SessionManager) setStateLocked(state models.SessionState, qrImage string) {
	if m.state != state {
		m.metrics.sessionTransition(state)
	}
	m.state = state
	m.qrImage = qrImage
	m.updatedAt = time.Now()
}

// LogoutAndReset unlinks the device, wipes the credential store and starts a
// new session that will ask for a fresh QR scan.
func (m *SessionManager) LogoutAndReset(ctx context.Context) error {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	m.publisher.Publish(events.New(events.TypeDisconnected, nil))

	m.mu.Lock()
	client := m.client
	m.client = nil
	m.generation++
	m.setStateLocked(models.SessionDisconnected, "")
	m.mu.Unlock()

	if client != nil {
		if err := client.Logout(ctx); err != nil {
			log.Warn().Err(err).Msg("logout failed")
		}
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}

	if err := m.creds.Erase(); err != nil {
		log.Error().Err(err).Msg("failed to clear credential store")
	}
	log.Info().Str("store", m.creds.Location()).Msg("🗑️ Session cleared")

	timer := time.NewTimer(m.settleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	return m.initializeLocked(ctx)
}

// Recover announces a reconnect and re-initializes the session
func (m *SessionManager) Recover(ctx context.Context) error {
	m.publisher.Publish(events.New(events.TypeReconnecting, nil))
	return m.Initialize(ctx)
}

// recoverInBackground runs Recover detached from the caller's cancellation
func (m *SessionManager) recoverInBackground(ctx context.Context) {
	go func() {
		if err := m.Recover(context.WithoutCancel(ctx)); err != nil {
			log.Error().Err(err).Msg("session recovery failed")
		}
	}()
}

// Close tears down whatever client the manager holds, ready or not
func (m *SessionManager) Close() error {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	m.mu.Lock()
	client := m.client
	m.client = nil
	m.generation++
	m.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Close()
}

// Snapshot returns a copy of the current session state
func (m *SessionManager) Snapshot() models.SessionSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return models.SessionSnapshot{
		State:     m.state,
		QRImage:   m.qrImage,
		UpdatedAt: m.updatedAt,
	}
}

// Client returns the live client, or ErrSessionNotReady unless READY
func (m *SessionManager) Client() (whatsapp.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != models.SessionReady || m.client == nil {
		return nil, ErrSessionNotReady
	}
	return m.client, nil
}

// ListGroups publishes the groups the account belongs to. A lost session
// is reported as expired and reconnected in the background.
func (m *SessionManager) ListGroups(ctx context.Context) ([]models.Group, error) {
	client, err := m.Client()
	if err != nil {
		m.metrics.groupsListed("not_ready")
		m.publisher.Publish(events.New(events.TypeGroupsError, err.Error()))
		return nil, err
	}

	groups, err := client.Groups(ctx)
	if err != nil {
		if whatsapp.IsSessionFatal(err) {
			m.metrics.groupsListed("expired")
			log.Warn().Err(err).Msg("session lost while listing groups")
			m.publisher.Publish(events.New(events.TypeGroupsError, ErrSessionExpired.Error()))
			m.recoverInBackground(ctx)
			return nil, ErrSessionExpired
		}
		m.metrics.groupsListed("error")
		m.publisher.Publish(events.New(events.TypeGroupsError, err.Error()))
		return nil, err
	}

	m.metrics.groupsListed("ok")
	m.publisher.Publish(events.New(events.TypeGroups, groups))
	return groups, nil
}
