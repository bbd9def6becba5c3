package models

import (
	"math"
	"time"
)

// ProjectFunding holds a project's goal and the ledger aggregates. Raised
// and SupporterCount are only ever written by the ledger. Amounts are cents.
type ProjectFunding struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ProjectID      uint      `gorm:"not null;uniqueIndex" json:"project_id"`
	Goal           int64     `gorm:"not null;default:0" json:"goal_cents"`
	Raised         int64     `gorm:"not null;default:0" json:"raised_cents"`
	SupporterCount int64     `gorm:"not null;default:0" json:"supporter_count"`
	CreatedAt      time.Time `json:"created_at"`

	BudgetItems []ProjectBudgetItem `gorm:"foreignKey:FundingID;constraint:OnDelete:CASCADE" json:"-"`
	Supporters  []ProjectSupporter  `gorm:"foreignKey:FundingID;constraint:OnDelete:CASCADE" json:"-"`
}

// Percentage is raised/goal as a whole percent, clamped to 100. A zero goal
// yields 0.
func (f ProjectFunding) Percentage() int {
	if f.Goal <= 0 {
		return 0
	}
	pct := math.RoundToEven(float64(f.Raised) / float64(f.Goal) * 100)
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return int(pct)
}

// IsFunded reports whether the goal has been reached.
func (f ProjectFunding) IsFunded() bool {
	return f.Raised >= f.Goal
}

// ProjectBudgetItem is one line of a project budget.
type ProjectBudgetItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FundingID   uint      `gorm:"not null;index" json:"funding_id"`
	Category    string    `gorm:"size:100;not null" json:"category"`
	Amount      int64     `gorm:"not null" json:"amount_cents"`
	Description string    `gorm:"type:text" json:"description"`
	Order       int       `gorm:"column:position;not null;default:0" json:"order"`
	CreatedAt   time.Time `json:"created_at"`
}

// AnonymousSupporterName is shown in place of anonymous supporters.
const AnonymousSupporterName = "Anonymous"

// ProjectSupporter is an append-only donation record.
type ProjectSupporter struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FundingID   uint      `gorm:"not null;index" json:"funding_id"`
	AccountID   *uint     `gorm:"index" json:"account_id,omitempty"`
	Account     *Account  `gorm:"foreignKey:AccountID;constraint:OnDelete:SET NULL" json:"-"`
	Name        string    `gorm:"size:100" json:"name"`
	Amount      int64     `gorm:"not null" json:"amount_cents"`
	Message     string    `gorm:"type:text" json:"message"`
	IsAnonymous bool      `gorm:"not null;default:false" json:"is_anonymous"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// DisplayName is the public name of a supporter.
func (s ProjectSupporter) DisplayName() string {
	if s.IsAnonymous {
		return AnonymousSupporterName
	}
	if s.Account != nil && s.Account.Username != "" {
		return s.Account.Username
	}
	return s.Name
}

// SupporterView is the public projection of a supporter.
type SupporterView struct {
	ID          uint      `json:"id"`
	DisplayName string    `json:"display_name"`
	Amount      int64     `json:"amount_cents"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// FundingSummary is the funding block of a project page. Only Enabled is set
// when the project has no funding row.
type FundingSummary struct {
	Enabled          bool                `json:"enabled"`
	Goal             int64               `json:"goal_cents"`
	Raised           int64               `json:"raised_cents"`
	SupporterCount   int64               `json:"supporter_count"`
	Percentage       int                 `json:"percentage"`
	IsFunded         bool                `json:"is_funded"`
	BudgetItems      []ProjectBudgetItem `json:"budget_items,omitempty"`
	BudgetTotal      int64               `json:"budget_total_cents"`
	RecentSupporters []SupporterView     `json:"recent_supporters,omitempty"`
}
