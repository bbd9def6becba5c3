package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"atelier/internal/models"
	"atelier/internal/repository"
)

const (
	MinSearchQueryLength = 2
	SearchResultLimit    = 10
)

// SearchResults groups matching accounts and projects.
type SearchResults struct {
	Query    string                  `json:"query"`
	Accounts []models.AccountSummary `json:"accounts"`
	Projects []models.Project        `json:"projects"`
}

type SearchService struct {
	accountRepo repository.AccountRepository
	projectRepo repository.ProjectRepository
}

func NewSearchService(accountRepo repository.AccountRepository, projectRepo repository.ProjectRepository) *SearchService {
	return &SearchService{accountRepo: accountRepo, projectRepo: projectRepo}
}

// Search matches accounts by username and projects by title or description.
// Queries shorter than two characters return nothing.
func (s *SearchService) Search(ctx context.Context, q string) (*SearchResults, error) {
	q = strings.TrimSpace(q)
	results := &SearchResults{
		Query:    q,
		Accounts: []models.AccountSummary{},
		Projects: []models.Project{},
	}
	if utf8.RuneCountInString(q) < MinSearchQueryLength {
		return results, nil
	}

	accounts, err := s.accountRepo.Search(ctx, q, SearchResultLimit)
	if err != nil {
		return nil, err
	}
	results.Accounts = summaries(accounts)

	projects, err := s.projectRepo.Search(ctx, q, SearchResultLimit)
	if err != nil {
		return nil, err
	}
	if projects != nil {
		results.Projects = projects
	}
	return results, nil
}
