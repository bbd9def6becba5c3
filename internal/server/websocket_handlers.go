package server

import (
	"errors"
	"log/slog"

	"atelier/internal/middleware"
	"atelier/internal/models"
	"atelier/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// IssueWSTicket handles POST /api/v1/ws/ticket
// @Summary Issue a websocket ticket
// @Description Single-use ticket for /ws/notifications?ticket=...
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{ticket=string,expires_in=int}
// @Failure 503 {object} models.ErrorResponse
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.tickets == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "Notifications are unavailable",
		})
	}
	ticket, ttl, err := s.tickets.Issue(c.UserContext(), accountID(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(ttl.Seconds()),
	})
}

// TicketRequired guards the websocket upgrade: the request must be an
// upgrade and carry a valid ticket, which is consumed.
func (s *Server) TicketRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if s.tickets == nil || s.hub == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
				Error: "Notifications are unavailable",
			})
		}

		uid, err := s.tickets.Redeem(c.UserContext(), c.Query("ticket"))
		if err != nil {
			if !errors.Is(err, notifications.ErrInvalidTicket) {
				middleware.Logger.WarnContext(c.UserContext(), "ticket redeem failed", slog.String("error", err.Error()))
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired websocket ticket"))
		}
		c.Locals("userID", uid)
		c.SetUserContext(middleware.WithAccount(c.UserContext(), uid))
		return c.Next()
	}
}

// NotificationsWebSocket streams notification events to the ticket holder.
func (s *Server) NotificationsWebSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok || uid == 0 {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			middleware.Logger.Warn("notification socket rejected",
				slog.Uint64("account_id", uint64(uid)),
				slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
