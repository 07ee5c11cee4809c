package whatsapp

import (
	"context"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/Ananth-NQI/wa-group-importer/internal/models"
)

// MeowClient implements Client on top of whatsmeow's multi-device protocol.
// Device keys live in a SQLite file managed by FileCredentialStore.
type MeowClient struct {
	creds   *FileCredentialStore
	handler EventHandler
	logger  zerolog.Logger

	mu        sync.Mutex
	container *sqlstore.Container
	client    *whatsmeow.Client
	cancelQR  context.CancelFunc
}

// NewMeowFactory returns a Factory producing whatsmeow clients bound to creds
func NewMeowFactory(creds *FileCredentialStore, logger zerolog.Logger) Factory {
	return func(handler EventHandler) (Client, error) {
		if handler == nil {
			return nil, errors.New("event handler is required")
		}
		return &MeowClient{
			creds:   creds,
			handler: handler,
			logger:  logger,
		}, nil
	}
}

// Connect opens the credential store and starts the websocket handshake.
// ctx only bounds the store setup; the QR channel lives until Close.
func (m *MeowClient) Connect(ctx context.Context) error {
	if err := m.creds.Ensure(); err != nil {
		return err
	}

	container, err := sqlstore.New(ctx, "sqlite3", m.creds.DSN(), waLog.Zerolog(m.logger.With().Str("module", "store").Logger()))
	if err != nil {
		return Classify(errors.Wrap(err, "open credential store"))
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		_ = container.Close()
		return Classify(errors.Wrap(err, "load device"))
	}

	client := whatsmeow.NewClient(device, waLog.Zerolog(m.logger.With().Str("module", "client").Logger()))
	client.AddEventHandler(m.onEvent)

	m.mu.Lock()
	m.container = container
	m.client = client
	m.mu.Unlock()

	if client.Store.ID == nil {
		qrCtx, cancel := context.WithCancel(context.Background())
		m.mu.Lock()
		m.cancelQR = cancel
		m.mu.Unlock()

		qrChan, err := client.GetQRChannel(qrCtx)
		if err != nil {
			cancel()
			return Classify(errors.Wrap(err, "open qr channel"))
		}
		go m.pumpQR(qrChan)
	}

	if err := client.Connect(); err != nil {
		return m.wrap(err, "connect")
	}
	return nil
}

func (m *MeowClient) pumpQR(ch <-chan whatsmeow.QRChannelItem) {
	for item := range ch {
		switch item.Event {
		case whatsmeow.QRChannelEventCode:
			m.handler(LifecycleEvent{Kind: EventChallenge, Payload: item.Code})
		case whatsmeow.QRChannelSuccess.Event:
			m.logger.Info().Msg("QR code scanned, pairing complete")
		case whatsmeow.QRChannelTimeout.Event:
			m.handler(LifecycleEvent{Kind: EventAuthFailure, Reason: "qr code timed out"})
		case whatsmeow.QRChannelEventError:
			m.handler(LifecycleEvent{Kind: EventAuthFailure, Reason: fmt.Sprintf("pairing failed: %v", item.Error)})
		default:
			m.handler(LifecycleEvent{Kind: EventAuthFailure, Reason: item.Event})
		}
	}
}

func (m *MeowClient) onEvent(evt any) {
	switch v := evt.(type) {
	case *events.Connected:
		m.handler(LifecycleEvent{Kind: EventReady})
	case *events.PairSuccess:
		m.logger.Info().Str("jid", v.ID.String()).Str("platform", v.Platform).Msg("device paired")
	case *events.LoggedOut:
		m.handler(LifecycleEvent{Kind: EventAuthFailure, Reason: fmt.Sprintf("logged out: %v", v.Reason)})
	case *events.ConnectFailure:
		m.handler(LifecycleEvent{Kind: EventAuthFailure, Reason: fmt.Sprintf("connect failure: %v", v.Reason)})
	case *events.ClientOutdated:
		m.handler(LifecycleEvent{Kind: EventAuthFailure, Reason: "client outdated"})
	case *events.StreamReplaced:
		m.handler(LifecycleEvent{Kind: EventDisconnected, Reason: "stream replaced by another login"})
	case *events.TemporaryBan:
		m.handler(LifecycleEvent{Kind: EventDisconnected, Reason: v.String()})
	case *events.Disconnected:
		m.handler(LifecycleEvent{Kind: EventDisconnected, Reason: "connection closed"})
	}
}

// Logout unlinks the device from the phone
func (m *MeowClient) Logout(ctx context.Context) error {
	client, err := m.current()
	if err != nil {
		return err
	}
	if err := client.Logout(ctx); err != nil {
		return m.wrap(err, "logout")
	}
	return nil
}

// Close disconnects and releases the credential store
func (m *MeowClient) Close() error {
	m.mu.Lock()
	client, container, cancel := m.client, m.container, m.cancelQR
	m.client, m.container, m.cancelQR = nil, nil, nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if client != nil {
		client.Disconnect()
	}
	if container != nil {
		if err := container.Close(); err != nil {
			return errors.Wrap(err, "close credential store")
		}
	}
	return nil
}

// Groups lists the groups the account is a member of
func (m *MeowClient) Groups(ctx context.Context) ([]models.Group, error) {
	client, err := m.current()
	if err != nil {
		return nil, err
	}

	joined, err := client.GetJoinedGroups(ctx)
	if err != nil {
		return nil, m.wrap(err, "get joined groups")
	}

	groups := make([]models.Group, 0, len(joined))
	for _, g := range joined {
		groups = append(groups, models.Group{ID: g.JID.String(), Name: g.Name})
	}
	return groups, nil
}

// Chat resolves id to a chat. Only group JIDs are looked up remotely.
func (m *MeowClient) Chat(ctx context.Context, id string) (Chat, error) {
	client, err := m.current()
	if err != nil {
		return Chat{}, err
	}

	jid, err := types.ParseJID(id)
	if err != nil {
		return Chat{}, errors.Wrap(err, "parse chat id")
	}
	if jid.Server != types.GroupServer {
		return Chat{ID: jid.String(), Name: jid.User, IsGroup: false}, nil
	}

	info, err := client.GetGroupInfo(ctx, jid)
	if err != nil {
		return Chat{}, m.wrap(err, "get group info")
	}
	return Chat{ID: info.JID.String(), Name: info.Name, IsGroup: true}, nil
}

// AddParticipant adds one user to the group. Per-participant rejections
// reported by the server are returned as errors.
func (m *MeowClient) AddParticipant(ctx context.Context, groupID, participantID string) error {
	client, err := m.current()
	if err != nil {
		return err
	}

	group, err := types.ParseJID(groupID)
	if err != nil {
		return errors.Wrap(err, "parse group id")
	}
	participant, err := types.ParseJID(participantID)
	if err != nil {
		return errors.Wrap(err, "parse participant id")
	}

	results, err := client.UpdateGroupParticipants(ctx, group, []types.JID{participant}, whatsmeow.ParticipantChangeAdd)
	if err != nil {
		return m.wrap(err, "add participant")
	}
	for _, p := range results {
		if p.Error != 0 {
			return fmt.Errorf("participant %s rejected with status %d", p.JID.User, p.Error)
		}
	}
	return nil
}

func (m *MeowClient) current() (*whatsmeow.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil, Mark(errors.New("client is closed"), ErrSessionLost)
	}
	return m.client, nil
}

func (m *MeowClient) wrap(err error, op string) error {
	wrapped := errors.Wrap(err, op)
	if errors.Is(err, whatsmeow.ErrNotConnected) || errors.Is(err, whatsmeow.ErrNotLoggedIn) {
		return Mark(wrapped, ErrSessionLost)
	}
	return Classify(wrapped)
}
