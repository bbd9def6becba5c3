package server

import (
	"atelier/internal/models"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

const defaultMessagePageSize = 20

func messageList(messages []models.Message) []models.Message {
	if messages == nil {
		return []models.Message{}
	}
	return messages
}

// GetInbox handles GET /api/v1/messages/inbox
// @Summary Inbox
// @Description Messages received by the caller, newest first
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.Message
// @Router /messages/inbox [get]
func (s *Server) GetInbox(c *fiber.Ctx) error {
	page := parsePagination(c, defaultMessagePageSize)
	messages, err := s.messageService.Inbox(c.UserContext(), accountID(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(messageList(messages))
}

// GetOutbox handles GET /api/v1/messages/outbox
// @Summary Outbox
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Message
// @Router /messages/outbox [get]
func (s *Server) GetOutbox(c *fiber.Ctx) error {
	page := parsePagination(c, defaultMessagePageSize)
	messages, err := s.messageService.Outbox(c.UserContext(), accountID(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(messageList(messages))
}

// GetMessage handles GET /api/v1/messages/:id. Reading as the recipient
// marks the message read.
// @Summary Read a message
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} models.Message
// @Failure 403 {object} models.ErrorResponse
// @Router /messages/{id} [get]
func (s *Server) GetMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	message, err := s.messageService.Get(c.UserContext(), accountID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(message)
}

// SendMessage handles POST /api/v1/messages
// @Summary Send a message
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{recipient=string,subject=string,body=string} true "Message"
// @Success 201 {object} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Router /messages [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var req struct {
		Recipient string `json:"recipient"`
		Subject   string `json:"subject"`
		Body      string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	message, err := s.messageService.Send(c.UserContext(), service.SendMessageInput{
		SenderID:  accountID(c),
		Recipient: req.Recipient,
		Subject:   req.Subject,
		Body:      req.Body,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// ReplyToMessage handles POST /api/v1/messages/:id/reply
// @Summary Reply to a message
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Param request body object{body=string} true "Reply"
// @Success 201 {object} models.Message
// @Failure 403 {object} models.ErrorResponse
// @Router /messages/{id}/reply [post]
func (s *Server) ReplyToMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Body string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	message, err := s.messageService.Reply(c.UserContext(), accountID(c), id, req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// GetUnreadCount handles GET /api/v1/messages/unread-count
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	count, err := s.messageService.UnreadCount(c.UserContext(), accountID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"unread": count})
}

// SuggestRecipients handles GET /api/v1/messages/recipients?q=prefix
func (s *Server) SuggestRecipients(c *fiber.Ctx) error {
	list, err := s.messageService.SuggestRecipients(c.UserContext(), accountID(c), c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}
