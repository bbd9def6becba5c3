package service

import (
	"context"
	"strings"

	"atelier/internal/models"
	"atelier/internal/notifications"
	"atelier/internal/observability"
	"atelier/internal/repository"
	"atelier/internal/validation"
)

// Message limits and autocomplete size.
const (
	MaxMessageSubjectLength = 255
	MaxMessageBodyLength    = 10000
	RecipientSuggestLimit   = 8
	replyPrefix             = "Re: "
)

type MessageService struct {
	messageRepo repository.MessageRepository
	accountRepo repository.AccountRepository
	events      EventPublisher
}

type SendMessageInput struct {
	SenderID  uint
	Recipient string
	Subject   string
	Body      string
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	accountRepo repository.AccountRepository,
	events EventPublisher,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		accountRepo: accountRepo,
		events:      events,
	}
}

func (s *MessageService) Inbox(ctx context.Context, accountID uint, limit, offset int) ([]models.Message, error) {
	return s.messageRepo.Inbox(ctx, accountID, limit, offset)
}

func (s *MessageService) Outbox(ctx context.Context, accountID uint, limit, offset int) ([]models.Message, error) {
	return s.messageRepo.Outbox(ctx, accountID, limit, offset)
}

// Get returns a message to its sender or recipient. The recipient reading
// it marks it read.
func (s *MessageService) Get(ctx context.Context, accountID, messageID uint) (*models.Message, error) {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID != accountID && message.RecipientID != accountID {
		return nil, models.NewForbiddenError("You cannot view this message")
	}
	if message.RecipientID == accountID && !message.IsRead {
		if err := s.messageRepo.MarkRead(ctx, message.ID); err != nil {
			return nil, err
		}
		message.IsRead = true
	}
	return message, nil
}

// Send delivers a new message to the account named in.Recipient.
func (s *MessageService) Send(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	subject, body, err := validateMessage(in.Subject, in.Body)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Recipient)
	if name == "" {
		return nil, models.NewValidationError("recipient is required")
	}
	recipient, err := s.accountRepo.GetByUsername(ctx, name)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewValidationError("username not found")
		}
		return nil, err
	}
	if recipient.ID == in.SenderID {
		return nil, models.NewValidationError("You cannot send a message to yourself")
	}

	return s.deliver(ctx, &models.Message{
		SenderID:    in.SenderID,
		RecipientID: recipient.ID,
		Subject:     subject,
		Body:        body,
	}, "new")
}

// Reply answers parentID. The reply goes to the other party of the parent
// and its subject gains a "Re: " prefix unless it already has one.
func (s *MessageService) Reply(ctx context.Context, accountID, parentID uint, body string) (*models.Message, error) {
	parent, err := s.messageRepo.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.SenderID != accountID && parent.RecipientID != accountID {
		return nil, models.NewForbiddenError("You cannot reply to this message")
	}

	subject := parent.Subject
	if !strings.HasPrefix(subject, replyPrefix) {
		subject = validation.Truncate(replyPrefix+subject, MaxMessageSubjectLength)
	}
	subject, text, err := validateMessage(subject, body)
	if err != nil {
		return nil, err
	}

	recipientID := parent.SenderID
	if parent.SenderID == accountID {
		recipientID = parent.RecipientID
	}
	parentRef := parent.ID
	return s.deliver(ctx, &models.Message{
		SenderID:    accountID,
		RecipientID: recipientID,
		Subject:     subject,
		Body:        text,
		ParentID:    &parentRef,
	}, "reply")
}

func validateMessage(subject, body string) (string, string, error) {
	subject, err := validation.RequiredText("subject", subject, MaxMessageSubjectLength)
	if err != nil {
		return "", "", models.NewValidationError(err.Error())
	}
	body, err = validation.RequiredText("body", body, MaxMessageBodyLength)
	if err != nil {
		return "", "", models.NewValidationError(err.Error())
	}
	return subject, body, nil
}

func (s *MessageService) deliver(ctx context.Context, message *models.Message, kind string) (*models.Message, error) {
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}
	observability.MessagesSent.WithLabelValues(kind).Inc()
	publish(ctx, s.events, message.RecipientID, notifications.EventNewMessage, map[string]interface{}{
		"message_id": message.ID,
		"sender_id":  message.SenderID,
		"subject":    message.Subject,
	})
	return s.messageRepo.GetByID(ctx, message.ID)
}

func (s *MessageService) UnreadCount(ctx context.Context, accountID uint) (int64, error) {
	return s.messageRepo.UnreadCount(ctx, accountID)
}

// SuggestRecipients completes a username prefix, excluding the caller.
func (s *MessageService) SuggestRecipients(ctx context.Context, accountID uint, prefix string) ([]models.AccountSummary, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []models.AccountSummary{}, nil
	}
	accounts, err := s.accountRepo.UsernamePrefix(ctx, prefix, accountID, RecipientSuggestLimit)
	if err != nil {
		return nil, err
	}
	return summaries(accounts), nil
}
