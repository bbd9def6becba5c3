package service

import (
	"context"
	"time"

	"atelier/internal/cache"
	"atelier/internal/models"
	"atelier/internal/notifications"
	"atelier/internal/repository"
	"atelier/internal/validation"
)

// DefaultProfileStatsTTL bounds how stale cached profile counters may be.
const DefaultProfileStatsTTL = 2 * time.Minute

type ProfileService struct {
	accountRepo repository.AccountRepository
	followRepo  repository.FollowRepository
	cache       *cache.Store
	statsTTL    time.Duration
	media       *MediaService
	events      EventPublisher
}

type UpdateProfileInput struct {
	AccountID uint
	Role      *string
	Bio       *string
	Image     *UploadImageInput
}

func NewProfileService(
	accountRepo repository.AccountRepository,
	followRepo repository.FollowRepository,
	store *cache.Store,
	statsTTL time.Duration,
	media *MediaService,
	events EventPublisher,
) *ProfileService {
	if statsTTL <= 0 {
		statsTTL = DefaultProfileStatsTTL
	}
	return &ProfileService{
		accountRepo: accountRepo,
		followRepo:  followRepo,
		cache:       store,
		statsTTL:    statsTTL,
		media:       media,
		events:      events,
	}
}

// Stats returns follower, following and post counts, served from the cache
// when possible.
func (s *ProfileService) Stats(ctx context.Context, accountID uint) (models.ProfileStats, error) {
	var stats models.ProfileStats
	err := s.cache.Aside(ctx, cache.ProfileStatsKey(accountID), &stats, s.statsTTL, func() error {
		var err error
		stats, err = s.accountRepo.Stats(ctx, accountID)
		return err
	})
	return stats, err
}

// InvalidateStats drops the cached counters of the given accounts.
func (s *ProfileService) InvalidateStats(ctx context.Context, accountIDs ...uint) {
	keys := make([]string, 0, len(accountIDs))
	for _, id := range accountIDs {
		keys = append(keys, cache.ProfileStatsKey(id))
	}
	s.cache.Invalidate(ctx, keys...)
}

// GetProfile renders username's profile for viewerID (0 when anonymous).
func (s *ProfileService) GetProfile(ctx context.Context, username string, viewerID uint) (*models.ProfileView, error) {
	account, err := s.accountRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, account, viewerID)
}

func (s *ProfileService) view(ctx context.Context, account *models.Account, viewerID uint) (*models.ProfileView, error) {
	stats, err := s.Stats(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	view := &models.ProfileView{
		ID:       account.ID,
		Username: account.Username,
		Stats:    stats,
		IsSelf:   viewerID != 0 && viewerID == account.ID,
	}
	if account.Profile != nil {
		view.Role = account.Profile.Role
		view.Bio = account.Profile.Bio
		view.ImageURL = account.Profile.ImageURL
		view.JoinedAt = account.Profile.JoinedAt
	}

	if viewerID != 0 && !view.IsSelf {
		if view.IsFollowing, err = s.followRepo.IsFollowing(ctx, viewerID, account.ID); err != nil {
			return nil, err
		}
		if view.FollowsYou, err = s.followRepo.IsFollowing(ctx, account.ID, viewerID); err != nil {
			return nil, err
		}
	}
	return view, nil
}

// UpdateProfile changes the caller's own role, bio or image. Nil fields are
// left unchanged.
func (s *ProfileService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.ProfileView, error) {
	account, err := s.accountRepo.GetByID(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}
	profile := account.Profile
	if profile == nil {
		profile = &models.Profile{AccountID: account.ID, Role: models.RoleArtist}
	}

	if in.Role != nil {
		role := models.ProfileRole(*in.Role)
		if !role.Valid() {
			return nil, models.NewValidationError("Invalid role")
		}
		profile.Role = role
	}
	if in.Bio != nil {
		bio, err := validation.OptionalText("bio", *in.Bio, models.MaxBioLength)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		profile.Bio = bio
	}
	previousImage := profile.ImageURL
	uploaded := ""
	if in.Image != nil {
		if s.media == nil {
			return nil, models.NewValidationError("Image uploads are not available")
		}
		upload := *in.Image
		upload.Target = UploadTargetAvatar
		upload.OwnerID = account.ID
		url, err := s.media.UploadImage(ctx, upload)
		if err != nil {
			return nil, err
		}
		profile.ImageURL = url
		uploaded = url
	}

	if err := s.accountRepo.UpdateProfile(ctx, profile); err != nil {
		s.media.Discard(ctx, uploaded)
		return nil, err
	}
	if uploaded != "" && previousImage != uploaded {
		s.media.Discard(ctx, previousImage)
	}
	account.Profile = profile
	return s.view(ctx, account, account.ID)
}

func (s *ProfileService) Followers(ctx context.Context, username string) ([]models.AccountSummary, error) {
	account, err := s.accountRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	accounts, err := s.followRepo.Followers(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	return summaries(accounts), nil
}

func (s *ProfileService) Following(ctx context.Context, username string) ([]models.AccountSummary, error) {
	account, err := s.accountRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	accounts, err := s.followRepo.Following(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	return summaries(accounts), nil
}

// Follow makes followerID follow username. Following twice is a no-op.
func (s *ProfileService) Follow(ctx context.Context, followerID uint, username string) (*models.ProfileView, error) {
	target, err := s.accountRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if target.ID == followerID {
		return nil, models.NewValidationError("You cannot follow yourself")
	}

	created, err := s.followRepo.Follow(ctx, followerID, target.ID)
	if err != nil {
		return nil, err
	}
	if created {
		s.InvalidateStats(ctx, followerID, target.ID)
		publish(ctx, s.events, target.ID, notifications.EventNewFollower, map[string]interface{}{
			"follower_id": followerID,
		})
	}
	return s.view(ctx, target, followerID)
}

// Unfollow removes the edge if present.
func (s *ProfileService) Unfollow(ctx context.Context, followerID uint, username string) (*models.ProfileView, error) {
	target, err := s.accountRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if target.ID == followerID {
		return nil, models.NewValidationError("You cannot unfollow yourself")
	}

	removed, err := s.followRepo.Unfollow(ctx, followerID, target.ID)
	if err != nil {
		return nil, err
	}
	if removed {
		s.InvalidateStats(ctx, followerID, target.ID)
	}
	return s.view(ctx, target, followerID)
}

func summaries(accounts []models.Account) []models.AccountSummary {
	out := make([]models.AccountSummary, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.Summary())
	}
	return out
}
