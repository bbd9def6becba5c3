package service

import (
	"context"

	"atelier/internal/models"
	"atelier/internal/notifications"
	"atelier/internal/observability"
	"atelier/internal/repository"
	"atelier/internal/validation"
)

// RecentSupporterLimit is how many supporters a funding summary shows.
const RecentSupporterLimit = 5

// Field limits for ledger input.
const (
	MaxSupporterNameLength    = 100
	MaxSupporterMessageLength = 1000
	MaxBudgetCategoryLength   = 100
)

// SupportInput is one contribution to a project. AccountID is nil for
// supporters without an account.
type SupportInput struct {
	ProjectID   uint
	AccountID   *uint
	Name        string
	Amount      int64
	Message     string
	IsAnonymous bool
}

type BudgetItemInput struct {
	Category    string
	Amount      int64
	Description string
	Order       *int
}

// LedgerService owns every write to a project's funding aggregates.
type LedgerService struct {
	projectRepo repository.ProjectRepository
	fundingRepo repository.FundingRepository
	accountRepo repository.AccountRepository
	events      EventPublisher
}

func NewLedgerService(
	projectRepo repository.ProjectRepository,
	fundingRepo repository.FundingRepository,
	accountRepo repository.AccountRepository,
	events EventPublisher,
) *LedgerService {
	return &LedgerService{
		projectRepo: projectRepo,
		fundingRepo: fundingRepo,
		accountRepo: accountRepo,
		events:      events,
	}
}

// RecordSupport stores a supporter and adds its amount to the funding
// aggregates in the same transaction. This is the only path that changes
// raised and supporter_count.
func (s *LedgerService) RecordSupport(ctx context.Context, in SupportInput) (*models.ProjectSupporter, error) {
	if in.Amount <= 0 {
		return nil, models.NewValidationError("Amount must be greater than zero")
	}
	name, err := validation.OptionalText("name", in.Name, MaxSupporterNameLength)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	message, err := validation.OptionalText("message", in.Message, MaxSupporterMessageLength)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.AccountID == nil && name == "" && !in.IsAnonymous {
		return nil, models.NewValidationError("name is required")
	}

	project, err := s.projectRepo.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	funding, err := s.fundingRepo.GetByProjectID(ctx, project.ID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewValidationError("funding not enabled")
		}
		return nil, err
	}

	supporter := &models.ProjectSupporter{
		FundingID:   funding.ID,
		AccountID:   in.AccountID,
		Name:        name,
		Amount:      in.Amount,
		Message:     message,
		IsAnonymous: in.IsAnonymous,
	}
	// A signed-in supporter is shown by username, so the account is loaded
	// before the row is written.
	if in.AccountID != nil && !in.IsAnonymous {
		account, err := s.accountRepo.GetByID(ctx, *in.AccountID)
		if err != nil {
			return nil, err
		}
		supporter.Account = account
	}
	if err := s.fundingRepo.AddSupporter(ctx, supporter); err != nil {
		return nil, err
	}
	observability.SupportersRecorded.Inc()
	observability.SupportAmountCents.Add(float64(in.Amount))

	if in.AccountID == nil || *in.AccountID != project.CreatorID {
		publish(ctx, s.events, project.CreatorID, notifications.EventNewSupporter, map[string]interface{}{
			"project_id":   project.ID,
			"amount_cents": in.Amount,
			"display_name": supporter.DisplayName(),
		})
	}
	return supporter, nil
}

// EnsureFunding enables funding on a project, creating a zero-goal row when
// none exists.
func (s *LedgerService) EnsureFunding(ctx context.Context, projectID uint) (*models.ProjectFunding, error) {
	return s.fundingRepo.Ensure(ctx, projectID)
}

func (s *LedgerService) requireCreator(ctx context.Context, actorID, projectID uint) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.CreatorID != actorID {
		return nil, models.NewForbiddenError("Only the project creator can manage funding")
	}
	return project, nil
}

// AddBudgetItem appends a budget line, enabling funding on demand.
func (s *LedgerService) AddBudgetItem(ctx context.Context, actorID, projectID uint, in BudgetItemInput) (*models.ProjectBudgetItem, error) {
	if _, err := s.requireCreator(ctx, actorID, projectID); err != nil {
		return nil, err
	}
	category, err := validation.RequiredText("category", in.Category, MaxBudgetCategoryLength)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.Amount <= 0 {
		return nil, models.NewValidationError("Amount must be greater than zero")
	}

	funding, err := s.fundingRepo.Ensure(ctx, projectID)
	if err != nil {
		return nil, err
	}

	order := 0
	if in.Order != nil {
		order = *in.Order
	} else {
		existing, err := s.fundingRepo.BudgetItems(ctx, funding.ID)
		if err != nil {
			return nil, err
		}
		order = len(existing)
	}

	item := &models.ProjectBudgetItem{
		FundingID:   funding.ID,
		Category:    category,
		Amount:      in.Amount,
		Description: in.Description,
		Order:       order,
	}
	if err := s.fundingRepo.AddBudgetItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// SetGoal changes the funding goal in cents, enabling funding on demand.
func (s *LedgerService) SetGoal(ctx context.Context, actorID, projectID uint, goal int64) (*models.ProjectFunding, error) {
	if goal < 0 {
		return nil, models.NewValidationError("Goal cannot be negative")
	}
	if _, err := s.requireCreator(ctx, actorID, projectID); err != nil {
		return nil, err
	}
	return s.fundingRepo.SetGoal(ctx, projectID, goal)
}

// FundingSummary is the public funding view of a project. A project without
// a funding row reports only enabled=false.
func (s *LedgerService) FundingSummary(ctx context.Context, projectID uint) (models.FundingSummary, error) {
	funding, err := s.fundingRepo.GetByProjectID(ctx, projectID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return models.FundingSummary{Enabled: false}, nil
		}
		return models.FundingSummary{}, err
	}

	items, err := s.fundingRepo.BudgetItems(ctx, funding.ID)
	if err != nil {
		return models.FundingSummary{}, err
	}
	supporters, err := s.fundingRepo.RecentSupporters(ctx, funding.ID, RecentSupporterLimit)
	if err != nil {
		return models.FundingSummary{}, err
	}

	summary := models.FundingSummary{
		Enabled:          true,
		Goal:             funding.Goal,
		Raised:           funding.Raised,
		SupporterCount:   funding.SupporterCount,
		Percentage:       funding.Percentage(),
		IsFunded:         funding.IsFunded(),
		BudgetItems:      items,
		RecentSupporters: make([]models.SupporterView, 0, len(supporters)),
	}
	for _, item := range items {
		summary.BudgetTotal += item.Amount
	}
	for _, sp := range supporters {
		summary.RecentSupporters = append(summary.RecentSupporters, models.SupporterView{
			ID:          sp.ID,
			DisplayName: sp.DisplayName(),
			Amount:      sp.Amount,
			Message:     sp.Message,
			CreatedAt:   sp.CreatedAt,
		})
	}
	return summary, nil
}
