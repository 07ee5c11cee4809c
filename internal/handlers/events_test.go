package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/wa-group-importer/internal/events"
	"github.com/Ananth-NQI/wa-group-importer/internal/models"
)

func TestWriteEventFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	evt := events.New(events.TypeLog, events.LogEntry{Type: events.LogSuccess, Message: "Added 919876543210"})
	require.NoError(t, writeEvent(&buf, evt))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "event: log\ndata: "))
	require.True(t, strings.HasSuffix(out, "\n\n"))

	data := strings.TrimSuffix(strings.TrimPrefix(out, "event: log\ndata: "), "\n\n")
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(data), &decoded))
	assert.Equal(t, "log", decoded["type"])
	payload := decoded["payload"].(map[string]any)
	assert.Equal(t, "Added 919876543210", payload["message"])
}

func TestInitialEvent(t *testing.T) {
	t.Parallel()

	evt, ok := initialEvent(models.SessionSnapshot{State: models.SessionReady})
	require.True(t, ok)
	assert.Equal(t, events.TypeReady, evt.Type)

	evt, ok = initialEvent(models.SessionSnapshot{State: models.SessionAwaitingCredential, QRImage: "data:x"})
	require.True(t, ok)
	assert.Equal(t, events.TypeQRImage, evt.Type)
	assert.Equal(t, "data:x", evt.Payload)

	_, ok = initialEvent(models.SessionSnapshot{State: models.SessionDisconnected})
	assert.False(t, ok)
	_, ok = initialEvent(models.SessionSnapshot{State: models.SessionUninitialized})
	assert.False(t, ok)
}

func TestStreamSendsCurrentStateFirst(t *testing.T) {
	t.Parallel()

	hub := events.NewHub()
	// a closed hub ends the stream right after the initial event
	hub.Close()

	h := NewEventsHandler(hub, &stubSessions{snap: models.SessionSnapshot{State: models.SessionReady}})
	app := fiber.New()
	app.Get("/api/events", h.Stream)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/events", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "event: ready\n"))
	assert.Zero(t, hub.SubscriberCount())
}
