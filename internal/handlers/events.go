package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"github.com/Ananth-NQI/wa-group-importer/internal/events"
	"github.com/Ananth-NQI/wa-group-importer/internal/models"
)

// DefaultKeepAlive is how often an idle stream gets a comment line
const DefaultKeepAlive = 25 * time.Second

// SessionSnapshotter reads the current session state
type SessionSnapshotter interface {
	Snapshot() models.SessionSnapshot
}

// EventsHandler streams hub events to browsers as server-sent events
type EventsHandler struct {
	hub       *events.Hub
	sessions  SessionSnapshotter
	keepAlive time.Duration
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *events.Hub, sessions SessionSnapshotter) *EventsHandler {
	return &EventsHandler{
		hub:       hub,
		sessions:  sessions,
		keepAlive: DefaultKeepAlive,
	}
}

// Stream subscribes the caller and writes events until it goes away.
// The first event reflects the current session state.
func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	sub := h.hub.Subscribe(events.DefaultBuffer)
	initial, hasInitial := initialEvent(h.sessions.Snapshot())
	keepAlive := h.keepAlive

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer h.hub.Unsubscribe(sub)

		if hasInitial {
			if err := writeEvent(w, initial); err != nil || w.Flush() != nil {
				return
			}
		}

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case evt, ok := <-sub.C():
				if !ok {
					return
				}
				if err := writeEvent(w, evt); err != nil {
					log.Debug().Err(err).Msg("event stream closed")
					return
				}
			case <-ticker.C:
				if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
					return
				}
			}
			if err := w.Flush(); err != nil {
				log.Debug().Err(err).Msg("event stream closed")
				return
			}
		}
	}))

	return nil
}

// initialEvent replays the session state a new observer has missed
func initialEvent(snap models.SessionSnapshot) (events.Event, bool) {
	switch {
	case snap.Ready():
		return events.New(events.TypeReady, nil), true
	case snap.State == models.SessionAwaitingCredential && snap.QRImage != "":
		return events.New(events.TypeQRImage, snap.QRImage), true
	default:
		return events.Event{}, false
	}
}

// writeEvent encodes one event in the text/event-stream format
func writeEvent(w io.Writer, evt events.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
	return err
}
