package repository

import (
	"context"

	"atelier/internal/models"

	"gorm.io/gorm"
)

// MessageRepository stores direct messages.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	Inbox(ctx context.Context, accountID uint, limit, offset int) ([]models.Message, error)
	Outbox(ctx context.Context, accountID uint, limit, offset int) ([]models.Message, error)
	MarkRead(ctx context.Context, id uint) error
	UnreadCount(ctx context.Context, accountID uint) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository returns a new MessageRepository implementation.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Omit("Sender", "Recipient", "Parent").Create(message).Error; err != nil {
		return mapError(err, "Message", message.ID)
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender.Profile").
		Preload("Recipient.Profile").
		First(&message, id).Error
	if err != nil {
		return nil, mapError(err, "Message", id)
	}
	return &message, nil
}

func (r *messageRepository) Inbox(ctx context.Context, accountID uint, limit, offset int) ([]models.Message, error) {
	return r.list(ctx, "recipient_id = ?", accountID, limit, offset)
}

func (r *messageRepository) Outbox(ctx context.Context, accountID uint, limit, offset int) ([]models.Message, error) {
	return r.list(ctx, "sender_id = ?", accountID, limit, offset)
}

func (r *messageRepository) list(ctx context.Context, where string, accountID uint, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	query := r.db.WithContext(ctx).
		Preload("Sender.Profile").
		Preload("Recipient.Profile").
		Where(where, accountID).
		Order("created_at DESC").Order("id DESC")
	if err := paginate(query, limit, offset).Find(&messages).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ? AND is_read = ?", id, false).
		Update("is_read", true).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) UnreadCount(ctx context.Context, accountID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("recipient_id = ? AND is_read = ?", accountID, false).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
