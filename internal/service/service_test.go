package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"atelier/internal/cache"
	"atelier/internal/config"
	"atelier/internal/models"
	"atelier/internal/notifications"
	"atelier/internal/repository"
	"atelier/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordedEvent struct {
	accountID uint
	event     notifications.Event
}

// publisherStub records published events and can be told to fail.
type publisherStub struct {
	mu     sync.Mutex
	events []recordedEvent
	fail   bool
}

func (p *publisherStub) PublishAccount(_ context.Context, accountID uint, event notifications.Event) error {
	if p.fail {
		return errors.New("redis unavailable")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{accountID: accountID, event: event})
	return nil
}

func (p *publisherStub) recorded() []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recordedEvent(nil), p.events...)
}

func (p *publisherStub) typesFor(accountID uint) []string {
	var out []string
	for _, e := range p.recorded() {
		if e.accountID == accountID {
			out = append(out, e.event.Type)
		}
	}
	return out
}

type testEnv struct {
	db     *gorm.DB
	events *publisherStub
	blobs  *testutil.BlobStoreStub

	accounts repository.AccountRepository
	posts    repository.PostRepository
	funding  repository.FundingRepository

	accountSvc    *AccountService
	profileSvc    *ProfileService
	engagementSvc *EngagementService
	postSvc       *PostService
	feedSvc       *FeedService
	ledgerSvc     *LedgerService
	projectSvc    *ProjectService
	messageSvc    *MessageService
	searchSvc     *SearchService
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithCache(t, cache.NewStore(nil))
}

func newTestEnvWithCache(t *testing.T, store *cache.Store) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	env := &testEnv{
		db:       db,
		events:   &publisherStub{},
		blobs:    testutil.NewBlobStoreStub(),
		accounts: repository.NewAccountRepository(db),
		posts:    repository.NewPostRepository(db),
		funding:  repository.NewFundingRepository(db),
	}
	follows := repository.NewFollowRepository(db)
	engagement := repository.NewEngagementRepository(db)
	projects := repository.NewProjectRepository(db)
	messages := repository.NewMessageRepository(db)

	media := NewMediaService(env.blobs, &config.Config{ImageMaxUploadSizeMB: 1, ImageMaxDimension: 64})
	env.accountSvc = NewAccountService(env.accounts)
	env.accountSvc.hashCost = 4
	env.profileSvc = NewProfileService(env.accounts, follows, store, time.Minute, media, env.events)
	env.engagementSvc = NewEngagementService(env.posts, engagement, env.events)
	env.postSvc = NewPostService(env.posts, env.engagementSvc, media, env.profileSvc)
	env.feedSvc = NewFeedService(env.posts, follows)
	env.ledgerSvc = NewLedgerService(projects, env.funding, env.accounts, env.events)
	env.projectSvc = NewProjectService(projects, env.accounts, env.ledgerSvc, media)
	env.messageSvc = NewMessageService(messages, env.accounts, env.events)
	env.searchSvc = NewSearchService(env.accounts, projects)
	return env
}

func (e *testEnv) account(t *testing.T, username string) *models.Account {
	t.Helper()
	return testutil.CreateAccount(t, e.db, username)
}

func (e *testEnv) textPostAt(t *testing.T, owner uint, content string, at time.Time) *models.TextPost {
	t.Helper()
	post := &models.TextPost{AccountID: owner, Content: content, CreatedAt: at}
	require.NoError(t, e.db.Omit("Account").Create(post).Error)
	return post
}

func (e *testEnv) imagePostAt(t *testing.T, owner uint, caption string, at time.Time) *models.ImagePost {
	t.Helper()
	post := &models.ImagePost{AccountID: owner, ImageURL: "https://blobs.test/x.webp", Caption: caption, CreatedAt: at}
	require.NoError(t, e.db.Omit("Account").Create(post).Error)
	return post
}

func (e *testEnv) project(t *testing.T, creator uint, opts ...func(*CreateProjectInput)) *models.ProjectDetail {
	t.Helper()
	in := CreateProjectInput{
		CreatorID:   creator,
		Title:       "Tidal Sculptures",
		Description: "Driftwood and sound",
	}
	for _, opt := range opts {
		opt(&in)
	}
	detail, err := e.projectSvc.Create(context.Background(), in)
	require.NoError(t, err)
	return detail
}

func withFunding(goal int64) func(*CreateProjectInput) {
	return func(in *CreateProjectInput) {
		in.EnableFunding = true
		in.FundingGoal = goal
	}
}

func withDates(start, end time.Time) func(*CreateProjectInput) {
	return func(in *CreateProjectInput) {
		in.StartDate = &start
		in.EndDate = &end
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, models.IsCode(err, code), "expected %s, got %v", code, err)
}
