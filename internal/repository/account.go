package repository

import (
	"context"

	"atelier/internal/models"

	"gorm.io/gorm"
)

// AccountRepository defines persistence operations for accounts and profiles.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id uint) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error
	Search(ctx context.Context, q string, limit int) ([]models.Account, error)
	UsernamePrefix(ctx context.Context, prefix string, excludeID uint, limit int) ([]models.Account, error)
	Stats(ctx context.Context, id uint) (models.ProfileStats, error)
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository returns a new AccountRepository implementation.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create inserts the account and its profile in one transaction.
func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	profile := account.Profile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Profile").Create(account).Error; err != nil {
			return err
		}
		if profile == nil {
			profile = &models.Profile{Role: models.RoleArtist}
		}
		profile.AccountID = account.ID
		if profile.JoinedAt.IsZero() {
			profile.JoinedAt = account.CreatedAt
		}
		return tx.Create(profile).Error
	})
	if err != nil {
		return mapError(err, "Account", account.Username)
	}
	account.Profile = profile
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Preload("Profile").First(&account, id).Error; err != nil {
		return nil, mapError(err, "Account", id)
	}
	return &account, nil
}

func (r *accountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Preload("Profile").Where("username = ?", username).First(&account).Error; err != nil {
		return nil, mapError(err, "Account", username)
	}
	return &account, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Preload("Profile").Where("LOWER(email) = LOWER(?)", email).First(&account).Error; err != nil {
		return nil, mapError(err, "Account", email)
	}
	return &account, nil
}

func (r *accountRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("LOWER(username) = LOWER(?)", username).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *accountRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("LOWER(email) = LOWER(?)", email).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *accountRepository) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("account_id = ?", profile.AccountID).
		Updates(map[string]interface{}{
			"role":      profile.Role,
			"bio":       profile.Bio,
			"image_url": profile.ImageURL,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Profile", profile.AccountID)
	}
	return nil
}

// Search matches usernames containing q, case-insensitively.
func (r *accountRepository) Search(ctx context.Context, q string, limit int) ([]models.Account, error) {
	var accounts []models.Account
	query := r.db.WithContext(ctx).Preload("Profile").
		Where("LOWER(username) LIKE ? ESCAPE '\\'", containsPattern(q)).
		Order("username ASC")
	if err := paginate(query, limit, 0).Find(&accounts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return accounts, nil
}

// UsernamePrefix backs recipient autocomplete.
func (r *accountRepository) UsernamePrefix(ctx context.Context, prefix string, excludeID uint, limit int) ([]models.Account, error) {
	var accounts []models.Account
	query := r.db.WithContext(ctx).Preload("Profile").
		Where("LOWER(username) LIKE ? ESCAPE '\\'", prefixPattern(prefix)).
		Where("id <> ?", excludeID).
		Order("username ASC")
	if err := paginate(query, limit, 0).Find(&accounts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return accounts, nil
}

func (r *accountRepository) Stats(ctx context.Context, id uint) (models.ProfileStats, error) {
	var stats models.ProfileStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Follow{}).Where("followed_id = ?", id).Count(&stats.Followers).Error; err != nil {
		return stats, models.NewInternalError(err)
	}
	if err := db.Model(&models.Follow{}).Where("follower_id = ?", id).Count(&stats.Following).Error; err != nil {
		return stats, models.NewInternalError(err)
	}
	var images, texts int64
	if err := db.Model(&models.ImagePost{}).Where("account_id = ?", id).Count(&images).Error; err != nil {
		return stats, models.NewInternalError(err)
	}
	if err := db.Model(&models.TextPost{}).Where("account_id = ?", id).Count(&texts).Error; err != nil {
		return stats, models.NewInternalError(err)
	}
	stats.Posts = images + texts
	return stats, nil
}
