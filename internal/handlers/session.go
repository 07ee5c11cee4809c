package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/Ananth-NQI/wa-group-importer/internal/models"
	"github.com/Ananth-NQI/wa-group-importer/internal/services"
)

// SessionController is the part of SessionManager exposed over HTTP
type SessionController interface {
	Snapshot() models.SessionSnapshot
	ListGroups(ctx context.Context) ([]models.Group, error)
	LogoutAndReset(ctx context.Context) error
}

// SessionHandler handles session and group requests
type SessionHandler struct {
	sessions SessionController
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions SessionController) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
	}
}

// GetSession returns the current session state
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	return c.JSON(h.sessions.Snapshot())
}

// GetGroups lists the groups of the logged in account
func (h *SessionHandler) GetGroups(c *fiber.Ctx) error {
	groups, err := h.sessions.ListGroups(c.UserContext())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotReady):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrSessionExpired):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
		}
	}

	return c.JSON(fiber.Map{
		"groups": groups,
		"count":  len(groups),
	})
}

// Disconnect logs the device out and starts a fresh session in the background
func (h *SessionHandler) Disconnect(c *fiber.Ctx) error {
	go func() {
		if err := h.sessions.LogoutAndReset(context.Background()); err != nil {
			log.Error().Err(err).Msg("session reset failed")
		}
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Disconnecting. A new QR code will follow.",
	})
}
