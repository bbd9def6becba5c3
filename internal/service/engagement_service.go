package service

import (
	"context"

	"atelier/internal/models"
	"atelier/internal/notifications"
	"atelier/internal/observability"
	"atelier/internal/repository"
	"atelier/internal/validation"
)

// EngagementService manages likes and comments on any content variant.
type EngagementService struct {
	postRepo       repository.PostRepository
	engagementRepo repository.EngagementRepository
	events         EventPublisher
}

func NewEngagementService(
	postRepo repository.PostRepository,
	engagementRepo repository.EngagementRepository,
	events EventPublisher,
) *EngagementService {
	return &EngagementService{
		postRepo:       postRepo,
		engagementRepo: engagementRepo,
		events:         events,
	}
}

func (s *EngagementService) target(ctx context.Context, kind models.ContentKind, id uint) (models.Content, error) {
	if !kind.Valid() {
		return nil, models.NewValidationError("unknown content kind: " + string(kind))
	}
	return s.postRepo.GetContent(ctx, kind, id)
}

// ToggleLike likes the target, or removes the like when one already exists.
// A concurrent duplicate insert resolves to the delete path through the
// unique index, so each call makes exactly one effective write.
func (s *EngagementService) ToggleLike(ctx context.Context, accountID uint, kind models.ContentKind, id uint) (models.LikeState, error) {
	content, err := s.target(ctx, kind, id)
	if err != nil {
		return models.LikeState{}, err
	}

	liked, err := s.engagementRepo.InsertLike(ctx, accountID, kind, id)
	if err != nil {
		return models.LikeState{}, err
	}
	if !liked {
		if _, err := s.engagementRepo.DeleteLike(ctx, accountID, kind, id); err != nil {
			return models.LikeState{}, err
		}
	}

	count, err := s.engagementRepo.CountLikes(ctx, kind, id)
	if err != nil {
		return models.LikeState{}, err
	}

	result := "unliked"
	if liked {
		result = "liked"
		if owner := content.OwnerID(); owner != accountID {
			publish(ctx, s.events, owner, notifications.EventNewLike, map[string]interface{}{
				"account_id": accountID,
				"kind":       kind,
				"target_id":  id,
			})
		}
	}
	observability.LikesToggled.WithLabelValues(string(kind), result).Inc()

	return models.LikeState{Liked: liked, LikeCount: count}, nil
}

// CountLikes is 0 for a missing target.
func (s *EngagementService) CountLikes(ctx context.Context, kind models.ContentKind, id uint) (int64, error) {
	return s.engagementRepo.CountLikes(ctx, kind, id)
}

// CountComments is 0 for a missing target.
func (s *EngagementService) CountComments(ctx context.Context, kind models.ContentKind, id uint) (int64, error) {
	return s.engagementRepo.CountComments(ctx, kind, id)
}

func (s *EngagementService) IsLikedBy(ctx context.Context, accountID uint, kind models.ContentKind, id uint) (bool, error) {
	return s.engagementRepo.IsLiked(ctx, accountID, kind, id)
}

func (s *EngagementService) AddComment(ctx context.Context, accountID uint, kind models.ContentKind, id uint, content string) (*models.Comment, error) {
	body, err := validation.RequiredText("comment", content, models.MaxCommentLength)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	target, err := s.target(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		AccountID: accountID,
		Kind:      kind,
		TargetID:  id,
		Content:   body,
	}
	if err := s.engagementRepo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	observability.CommentsCreated.WithLabelValues(string(kind)).Inc()

	if owner := target.OwnerID(); owner != accountID {
		publish(ctx, s.events, owner, notifications.EventNewComment, map[string]interface{}{
			"account_id": accountID,
			"kind":       kind,
			"target_id":  id,
			"comment_id": comment.ID,
		})
	}
	return s.engagementRepo.GetComment(ctx, comment.ID)
}

// ListComments returns the target's comments newest first.
func (s *EngagementService) ListComments(ctx context.Context, kind models.ContentKind, id uint) ([]models.Comment, error) {
	if _, err := s.target(ctx, kind, id); err != nil {
		return nil, err
	}
	return s.engagementRepo.ListComments(ctx, kind, id)
}

// DeleteComment removes a comment. Only its author may delete it.
func (s *EngagementService) DeleteComment(ctx context.Context, accountID, commentID uint) error {
	comment, err := s.engagementRepo.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AccountID != accountID {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	return s.engagementRepo.DeleteComment(ctx, commentID)
}
