package repository

import (
	"context"

	"atelier/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EngagementRepository stores likes and comments keyed by (kind, target id).
type EngagementRepository interface {
	InsertLike(ctx context.Context, accountID uint, kind models.ContentKind, targetID uint) (bool, error)
	DeleteLike(ctx context.Context, accountID uint, kind models.ContentKind, targetID uint) (bool, error)
	CountLikes(ctx context.Context, kind models.ContentKind, targetID uint) (int64, error)
	CountComments(ctx context.Context, kind models.ContentKind, targetID uint) (int64, error)
	IsLiked(ctx context.Context, accountID uint, kind models.ContentKind, targetID uint) (bool, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id uint) (*models.Comment, error)
	ListComments(ctx context.Context, kind models.ContentKind, targetID uint) ([]models.Comment, error)
	DeleteComment(ctx context.Context, id uint) error
}

type engagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository returns a new EngagementRepository implementation.
func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

// InsertLike reports whether a row was written. An existing like, including
// one committed concurrently, leaves the table unchanged and returns false.
func (r *engagementRepository) InsertLike(ctx context.Context, accountID uint, kind models.ContentKind, targetID uint) (bool, error) {
	like := models.Like{AccountID: accountID, Kind: kind, TargetID: targetID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "kind"}, {Name: "target_id"}},
		DoNothing: true,
	}).Create(&like)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return false, nil
		}
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *engagementRepository) DeleteLike(ctx context.Context, accountID uint, kind models.ContentKind, targetID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("account_id = ? AND kind = ? AND target_id = ?", accountID, kind, targetID).
		Delete(&models.Like{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *engagementRepository) CountLikes(ctx context.Context, kind models.ContentKind, targetID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("kind = ? AND target_id = ?", kind, targetID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *engagementRepository) CountComments(ctx context.Context, kind models.ContentKind, targetID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("kind = ? AND target_id = ?", kind, targetID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *engagementRepository) IsLiked(ctx context.Context, accountID uint, kind models.ContentKind, targetID uint) (bool, error) {
	if accountID == 0 {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("account_id = ? AND kind = ? AND target_id = ?", accountID, kind, targetID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *engagementRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit("Account").Create(comment).Error; err != nil {
		return mapError(err, "Comment", comment.ID)
	}
	return nil
}

func (r *engagementRepository) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("Account.Profile").First(&comment, id).Error; err != nil {
		return nil, mapError(err, "Comment", id)
	}
	return &comment, nil
}

// ListComments returns a target's comments newest first.
func (r *engagementRepository) ListComments(ctx context.Context, kind models.ContentKind, targetID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).Preload("Account.Profile").
		Where("kind = ? AND target_id = ?", kind, targetID).
		Order("created_at DESC").Order("id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *engagementRepository) DeleteComment(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}

// PurgeTarget deletes every like and comment attached to a target. It runs
// on the caller's transaction.
func PurgeTarget(tx *gorm.DB, kind models.ContentKind, targetID uint) error {
	if err := tx.Where("kind = ? AND target_id = ?", kind, targetID).Delete(&models.Like{}).Error; err != nil {
		return err
	}
	return tx.Where("kind = ? AND target_id = ?", kind, targetID).Delete(&models.Comment{}).Error
}
