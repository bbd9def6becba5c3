package repository

import (
	"context"

	"atelier/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FundingRepository stores project funding and its ledger rows.
type FundingRepository interface {
	GetByProjectID(ctx context.Context, projectID uint) (*models.ProjectFunding, error)
	Ensure(ctx context.Context, projectID uint) (*models.ProjectFunding, error)
	SetGoal(ctx context.Context, projectID uint, goal int64) (*models.ProjectFunding, error)
	AddSupporter(ctx context.Context, supporter *models.ProjectSupporter) error
	RecentSupporters(ctx context.Context, fundingID uint, limit int) ([]models.ProjectSupporter, error)
	BudgetItems(ctx context.Context, fundingID uint) ([]models.ProjectBudgetItem, error)
	AddBudgetItem(ctx context.Context, item *models.ProjectBudgetItem) error
}

type fundingRepository struct {
	db *gorm.DB
}

// NewFundingRepository returns a new FundingRepository implementation.
func NewFundingRepository(db *gorm.DB) FundingRepository {
	return &fundingRepository{db: db}
}

func (r *fundingRepository) GetByProjectID(ctx context.Context, projectID uint) (*models.ProjectFunding, error) {
	var funding models.ProjectFunding
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).First(&funding).Error; err != nil {
		return nil, mapError(err, "ProjectFunding", projectID)
	}
	return &funding, nil
}

// Ensure returns the project's funding row, creating it with a zero goal
// when missing.
func (r *fundingRepository) Ensure(ctx context.Context, projectID uint) (*models.ProjectFunding, error) {
	funding := models.ProjectFunding{ProjectID: projectID}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}},
		DoNothing: true,
	}).Omit(clause.Associations).Create(&funding).Error
	if err != nil && !isUniqueViolation(err) {
		return nil, models.NewInternalError(err)
	}
	return r.GetByProjectID(ctx, projectID)
}

func (r *fundingRepository) SetGoal(ctx context.Context, projectID uint, goal int64) (*models.ProjectFunding, error) {
	if _, err := r.Ensure(ctx, projectID); err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).Model(&models.ProjectFunding{}).
		Where("project_id = ?", projectID).
		Update("goal", goal).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return r.GetByProjectID(ctx, projectID)
}

// AddSupporter inserts the supporter and applies its amount to the funding
// aggregates in the same transaction.
func (r *fundingRepository) AddSupporter(ctx context.Context, supporter *models.ProjectSupporter) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Account").Create(supporter).Error; err != nil {
			return err
		}
		res := tx.Model(&models.ProjectFunding{}).
			Where("id = ?", supporter.FundingID).
			Updates(map[string]interface{}{
				"raised":          gorm.Expr("raised + ?", supporter.Amount),
				"supporter_count": gorm.Expr("supporter_count + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return mapError(err, "ProjectFunding", supporter.FundingID)
}

// RecentSupporters returns the newest supporters first.
func (r *fundingRepository) RecentSupporters(ctx context.Context, fundingID uint, limit int) ([]models.ProjectSupporter, error) {
	var supporters []models.ProjectSupporter
	query := r.db.WithContext(ctx).
		Preload("Account").
		Where("funding_id = ?", fundingID).
		Order("created_at DESC").Order("id DESC")
	if err := paginate(query, limit, 0).Find(&supporters).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return supporters, nil
}

// BudgetItems lists budget lines by display order, then id.
func (r *fundingRepository) BudgetItems(ctx context.Context, fundingID uint) ([]models.ProjectBudgetItem, error) {
	var items []models.ProjectBudgetItem
	err := r.db.WithContext(ctx).
		Where("funding_id = ?", fundingID).
		Order("position ASC").Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *fundingRepository) AddBudgetItem(ctx context.Context, item *models.ProjectBudgetItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return mapError(err, "ProjectBudgetItem", item.ID)
	}
	return nil
}
