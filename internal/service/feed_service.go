package service

import (
	"context"
	"sort"

	"atelier/internal/models"
	"atelier/internal/observability"
	"atelier/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// DefaultFeedLimit applies when a caller does not ask for a limit.
const DefaultFeedLimit = 50

// FeedQuery selects a merged feed. A nil AccountIDs is the global feed; a
// non-nil slice restricts owners, and an empty one yields nothing. A Limit
// of zero or less returns every eligible item.
type FeedQuery struct {
	AccountIDs *[]uint
	Limit      int
	ViewerID   uint
}

// FeedService merges image and text posts into one chronological feed.
type FeedService struct {
	postRepo   repository.PostRepository
	followRepo repository.FollowRepository
}

func NewFeedService(postRepo repository.PostRepository, followRepo repository.FollowRepository) *FeedService {
	return &FeedService{postRepo: postRepo, followRepo: followRepo}
}

// MergeFeed reads both variants with the full limit, sorts the union by
// creation time descending with id descending as the tie-break, and only
// then applies the limit.
func (s *FeedService) MergeFeed(ctx context.Context, q FeedQuery) (items []models.FeedItem, err error) {
	ctx, span := observability.StartSpan(ctx, "feed", "merge", attribute.Int("feed.limit", q.Limit))
	defer func() { observability.EndSpan(span, err) }()

	filter := repository.FeedFilter{AccountIDs: q.AccountIDs, Limit: q.Limit, ViewerID: q.ViewerID}

	images, err := s.postRepo.ListImageFeed(ctx, filter)
	if err != nil {
		return nil, err
	}
	texts, err := s.postRepo.ListTextFeed(ctx, filter)
	if err != nil {
		return nil, err
	}

	items = make([]models.FeedItem, 0, len(images)+len(texts))
	items = append(items, images...)
	items = append(items, texts...)
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	if q.Limit > 0 && len(items) > q.Limit {
		items = items[:q.Limit]
	}

	span.SetAttributes(attribute.Int("feed.items", len(items)))
	return items, nil
}

// Home is the feed of everyone accountID follows plus its own posts.
func (s *FeedService) Home(ctx context.Context, accountID uint, limit int) ([]models.FeedItem, error) {
	ids, err := s.followRepo.FollowedIDs(ctx, accountID)
	if err != nil {
		return nil, err
	}
	ids = append(ids, accountID)
	return s.serve(ctx, "home", FeedQuery{AccountIDs: &ids, Limit: limit, ViewerID: accountID})
}

// Global is the feed of every account.
func (s *FeedService) Global(ctx context.Context, viewerID uint, limit int) ([]models.FeedItem, error) {
	return s.serve(ctx, "global", FeedQuery{Limit: limit, ViewerID: viewerID})
}

// Profile is the wall of a single account.
func (s *FeedService) Profile(ctx context.Context, accountID, viewerID uint, limit int) ([]models.FeedItem, error) {
	ids := []uint{accountID}
	return s.serve(ctx, "profile", FeedQuery{AccountIDs: &ids, Limit: limit, ViewerID: viewerID})
}

func (s *FeedService) serve(ctx context.Context, scope string, q FeedQuery) ([]models.FeedItem, error) {
	items, err := s.MergeFeed(ctx, q)
	if err != nil {
		return nil, err
	}
	observability.FeedItemsServed.WithLabelValues(scope).Observe(float64(len(items)))
	return items, nil
}
