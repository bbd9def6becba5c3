package repository

import (
	"context"

	"atelier/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository stores the directed follow graph.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followedID uint) (bool, error)
	Unfollow(ctx context.Context, followerID, followedID uint) (bool, error)
	IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error)
	FollowedIDs(ctx context.Context, followerID uint) ([]uint, error)
	Followers(ctx context.Context, accountID uint) ([]models.Account, error)
	Following(ctx context.Context, accountID uint) ([]models.Account, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository returns a new FollowRepository implementation.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Follow reports whether a new edge was created; following twice is a no-op.
func (r *followRepository) Follow(ctx context.Context, followerID, followedID uint) (bool, error) {
	edge := models.Follow{FollowerID: followerID, FollowedID: followedID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "follower_id"}, {Name: "followed_id"}},
		DoNothing: true,
	}).Omit("Follower", "Followed").Create(&edge)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return false, nil
		}
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *followRepository) Unfollow(ctx context.Context, followerID, followedID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	if followerID == 0 || followedID == 0 {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) FollowedIDs(ctx context.Context, followerID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", followerID).
		Pluck("followed_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// Followers lists accounts following accountID, most recent first.
func (r *followRepository) Followers(ctx context.Context, accountID uint) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.WithContext(ctx).Preload("Profile").
		Joins("JOIN follows f ON f.follower_id = accounts.id").
		Where("f.followed_id = ?", accountID).
		Order("f.created_at DESC").Order("f.id DESC").
		Find(&accounts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return accounts, nil
}

// Following lists accounts accountID follows, most recent first.
func (r *followRepository) Following(ctx context.Context, accountID uint) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.WithContext(ctx).Preload("Profile").
		Joins("JOIN follows f ON f.followed_id = accounts.id").
		Where("f.follower_id = ?", accountID).
		Order("f.created_at DESC").Order("f.id DESC").
		Find(&accounts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return accounts, nil
}
