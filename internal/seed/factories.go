// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"atelier/internal/models"
	"atelier/internal/repository"
	"atelier/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them through the repositories.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	faker *gofakeit.Faker
	opts  Options

	accounts   repository.AccountRepository
	follows    repository.FollowRepository
	posts      repository.PostRepository
	engagement repository.EngagementRepository
	messages   repository.MessageRepository
	projects   repository.ProjectRepository
	funding    repository.FundingRepository

	hashes    map[string]string
	usernames map[string]struct{}
}

// NewFactory creates a new Factory bound to the provided Gorm DB. A zero
// opts.Seed picks a random seed.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	return &Factory{
		faker:      gofakeit.New(opts.Seed),
		opts:       opts,
		accounts:   repository.NewAccountRepository(db),
		follows:    repository.NewFollowRepository(db),
		posts:      repository.NewPostRepository(db),
		engagement: repository.NewEngagementRepository(db),
		messages:   repository.NewMessageRepository(db),
		projects:   repository.NewProjectRepository(db),
		funding:    repository.NewFundingRepository(db),
		hashes:     make(map[string]string),
		usernames:  make(map[string]struct{}),
	}
}

// chance reports true with probability p.
func (f *Factory) chance(p float64) bool {
	if p >= 1 {
		return true
	}
	return p > 0 && f.faker.Float64Range(0, 1) < p
}

// between returns an int in [lo, hi].
func (f *Factory) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return f.faker.Number(lo, hi)
}

// backdate returns a moment within the last maxDays days.
func (f *Factory) backdate(maxDays int) time.Time {
	if maxDays <= 0 {
		maxDays = 90
	}
	offset := time.Duration(f.between(0, maxDays-1))*24*time.Hour +
		time.Duration(f.between(0, 23))*time.Hour +
		time.Duration(f.between(0, 59))*time.Minute
	return time.Now().Add(-offset)
}

func (f *Factory) hash(password string) (string, error) {
	if h, ok := f.hashes[password]; ok {
		return h, nil
	}
	cost := bcrypt.DefaultCost
	if f.opts.FastHash {
		cost = bcrypt.MinCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	f.hashes[password] = string(h)
	return string(h), nil
}

// username returns a valid username not handed out by this factory before.
func (f *Factory) username() string {
	for {
		name := strings.ToLower(f.faker.FirstName()) + fmt.Sprintf("%d", f.faker.Number(10, 9999))
		name = strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, name)
		if _, taken := f.usernames[name]; taken {
			continue
		}
		if validation.ValidateUsername(name) != nil {
			continue
		}
		f.usernames[name] = struct{}{}
		return name
	}
}

// CreateAccount persists an account with a generated profile. Overrides may
// change any field before saving; Password holds the plain text until then.
func (f *Factory) CreateAccount(ctx context.Context, password string, overrides ...func(*models.Account)) (*models.Account, error) {
	name := f.username()
	account := &models.Account{
		Username: name,
		Email:    name + "@atelier.local",
		Password: password,
		Profile: &models.Profile{
			Role:     models.RoleArtist,
			Bio:      f.faker.HipsterSentence(f.between(6, 18)),
			ImageURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", name),
			JoinedAt: f.backdate(365),
		},
	}
	for _, override := range overrides {
		override(account)
	}
	f.usernames[account.Username] = struct{}{}

	hashed, err := f.hash(account.Password)
	if err != nil {
		return nil, err
	}
	account.Password = hashed
	if err := f.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Follow creates a follow edge; an existing edge is left alone.
func (f *Factory) Follow(ctx context.Context, follower, followed *models.Account) (bool, error) {
	return f.follows.Follow(ctx, follower.ID, followed.ID)
}

// CreateTextPost persists a short text post for owner.
func (f *Factory) CreateTextPost(ctx context.Context, owner *models.Account, createdAt time.Time) (*models.TextPost, error) {
	post := &models.TextPost{
		AccountID: owner.ID,
		Content:   validation.Truncate(f.faker.Sentence(f.between(5, 30)), models.MaxTextPostLength),
		CreatedAt: createdAt,
	}
	if err := f.posts.CreateTextPost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateImagePost persists an image post pointing at a placeholder image.
func (f *Factory) CreateImagePost(ctx context.Context, owner *models.Account, createdAt time.Time) (*models.ImagePost, error) {
	post := &models.ImagePost{
		AccountID: owner.ID,
		ImageURL:  fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID()),
		Caption:   f.faker.Sentence(f.between(3, 12)),
		CreatedAt: createdAt,
	}
	if err := f.posts.CreateImagePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Like records a like from account on the content.
func (f *Factory) Like(ctx context.Context, account *models.Account, content models.Content) (bool, error) {
	return f.engagement.InsertLike(ctx, account.ID, content.Kind(), content.ContentID())
}

// CreateComment persists a comment by author on the content.
func (f *Factory) CreateComment(ctx context.Context, author *models.Account, content models.Content) (*models.Comment, error) {
	comment := &models.Comment{
		AccountID: author.ID,
		Kind:      content.Kind(),
		TargetID:  content.ContentID(),
		Content:   f.faker.Sentence(f.between(3, 16)),
	}
	if err := f.engagement.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateMessage persists a direct message, optionally already read.
func (f *Factory) CreateMessage(ctx context.Context, from, to *models.Account, read bool) (*models.Message, error) {
	message := &models.Message{
		SenderID:    from.ID,
		RecipientID: to.ID,
		Subject:     strings.TrimSuffix(f.faker.HipsterSentence(f.between(2, 5)), "."),
		Body:        f.faker.Paragraph(1, f.between(1, 4), 12, "\n"),
		IsRead:      read,
	}
	if err := f.messages.Create(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// ProjectSpec is the shape of a generated project.
type ProjectSpec struct {
	CollaboratorIDs []uint
	Manifestations  []string
	Funded          bool
	Goal            int64
}

// CreateProject persists a project with a generated timeline around today.
func (f *Factory) CreateProject(ctx context.Context, creator *models.Account, spec ProjectSpec) (*models.Project, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -f.between(0, 60))
	end := start.AddDate(0, 0, f.between(14, 150))

	projectType := models.ProjectSolo
	if len(spec.CollaboratorIDs) > 0 {
		projectType = models.ProjectCollaborative
	}
	budget := models.BudgetSelf
	if spec.Funded {
		budget = models.BudgetSeeking
	}
	statuses := []models.ProjectStatus{models.StatusOngoing, models.StatusDevelopment, models.StatusOngoing, models.StatusPaused}

	project := &models.Project{
		CreatorID:     creator.ID,
		Title:         validation.Truncate(capitalize(f.faker.Adjective()+" "+f.faker.Noun()), models.MaxProjectTitleLength),
		Description:   f.faker.Paragraph(2, 3, 14, "\n\n"),
		ProjectType:   projectType,
		Status:        statuses[f.between(0, len(statuses)-1)],
		BudgetType:    budget,
		CoverImageURL: fmt.Sprintf("https://picsum.photos/seed/%s/1200/600", f.faker.UUID()),
		StartDate:     &start,
		EndDate:       &end,
	}
	err := f.projects.Create(ctx, repository.NewProject{
		Project:         project,
		CollaboratorIDs: spec.CollaboratorIDs,
		Manifestations:  spec.Manifestations,
		EnableFunding:   spec.Funded,
		FundingGoal:     spec.Goal,
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// Support records a contribution through the funding ledger. A nil supporter
// is a named guest.
func (f *Factory) Support(ctx context.Context, funding *models.ProjectFunding, supporter *models.Account) (*models.ProjectSupporter, error) {
	record := &models.ProjectSupporter{
		FundingID:   funding.ID,
		Amount:      int64(f.between(5, 500)) * 100,
		IsAnonymous: f.chance(0.2),
	}
	if f.chance(0.5) {
		record.Message = f.faker.Sentence(f.between(3, 10))
	}
	if supporter != nil {
		record.AccountID = &supporter.ID
	} else {
		record.Name = f.faker.FirstName() + " " + f.faker.LastName()
	}
	if err := f.funding.AddSupporter(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var budgetCategories = []string{"Materials", "Studio rent", "Travel", "Printing", "Framing", "Documentation", "Fees"}

// CreateBudgetItem adds a budget line at position order.
func (f *Factory) CreateBudgetItem(ctx context.Context, funding *models.ProjectFunding, order int) (*models.ProjectBudgetItem, error) {
	item := &models.ProjectBudgetItem{
		FundingID:   funding.ID,
		Category:    budgetCategories[f.between(0, len(budgetCategories)-1)],
		Amount:      int64(f.between(2, 80)) * 1000,
		Description: f.faker.Sentence(f.between(4, 10)),
		Order:       order,
	}
	if err := f.funding.AddBudgetItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// CreateCalendarEntry writes a note on a random day of the project timeline.
func (f *Factory) CreateCalendarEntry(ctx context.Context, project *models.Project) (*models.ProjectCalendarEntry, error) {
	day := *project.StartDate
	if project.EndDate != nil {
		span := int(project.EndDate.Sub(*project.StartDate).Hours() / 24)
		day = day.AddDate(0, 0, f.between(0, span))
	}
	entry := &models.ProjectCalendarEntry{
		ProjectID: project.ID,
		Date:      day,
		Content:   f.faker.Sentence(f.between(3, 9)),
	}
	if err := f.projects.UpsertCalendarEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
