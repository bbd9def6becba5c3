package service

import (
	"context"

	"atelier/internal/models"
	"atelier/internal/repository"
	"atelier/internal/validation"
)

type PostService struct {
	postRepo   repository.PostRepository
	engagement *EngagementService
	media      *MediaService
	profiles   *ProfileService
}

type CreateImagePostInput struct {
	AccountID uint
	Caption   string
	Image     UploadImageInput
}

type CreateTextPostInput struct {
	AccountID uint
	Content   string
}

// UpdatePostInput edits the caption of an image post or the content of a
// text post, depending on Kind.
type UpdatePostInput struct {
	AccountID uint
	Kind      models.ContentKind
	PostID    uint
	Text      string
}

func NewPostService(
	postRepo repository.PostRepository,
	engagement *EngagementService,
	media *MediaService,
	profiles *ProfileService,
) *PostService {
	return &PostService{
		postRepo:   postRepo,
		engagement: engagement,
		media:      media,
		profiles:   profiles,
	}
}

func (s *PostService) CreateImagePost(ctx context.Context, in CreateImagePostInput) (*models.FeedItem, error) {
	caption, err := validation.OptionalText("caption", in.Caption, models.MaxCommentLength)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if s.media == nil {
		return nil, models.NewValidationError("Image uploads are not available")
	}

	upload := in.Image
	upload.Target = UploadTargetPost
	upload.OwnerID = in.AccountID
	url, err := s.media.UploadImage(ctx, upload)
	if err != nil {
		return nil, err
	}

	post := &models.ImagePost{AccountID: in.AccountID, ImageURL: url, Caption: caption}
	if err := s.postRepo.CreateImagePost(ctx, post); err != nil {
		s.media.Discard(ctx, url)
		return nil, err
	}
	s.invalidate(ctx, in.AccountID)
	return s.Get(ctx, models.KindPost, post.ID, in.AccountID)
}

func (s *PostService) CreateTextPost(ctx context.Context, in CreateTextPostInput) (*models.FeedItem, error) {
	content, err := validation.RequiredText("content", in.Content, models.MaxTextPostLength)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post := &models.TextPost{AccountID: in.AccountID, Content: content}
	if err := s.postRepo.CreateTextPost(ctx, post); err != nil {
		return nil, err
	}
	s.invalidate(ctx, in.AccountID)
	return s.Get(ctx, models.KindVerbal, post.ID, in.AccountID)
}

// Get renders one post as a feed item for viewerID.
func (s *PostService) Get(ctx context.Context, kind models.ContentKind, id, viewerID uint) (*models.FeedItem, error) {
	if !kind.Valid() {
		return nil, models.NewValidationError("unknown content kind: " + string(kind))
	}

	item := &models.FeedItem{ID: id, Kind: kind}
	switch kind {
	case models.KindPost:
		post, err := s.postRepo.GetImagePost(ctx, id)
		if err != nil {
			return nil, err
		}
		item.Owner = post.Account.Summary()
		item.CreatedAt = post.CreatedAt
		item.Image = &models.ImagePayload{ImageURL: post.ImageURL, Caption: post.Caption}
	case models.KindVerbal:
		post, err := s.postRepo.GetTextPost(ctx, id)
		if err != nil {
			return nil, err
		}
		item.Owner = post.Account.Summary()
		item.CreatedAt = post.CreatedAt
		item.Text = &models.TextPayload{Content: post.Content}
	}

	var err error
	if item.LikeCount, err = s.engagement.CountLikes(ctx, kind, id); err != nil {
		return nil, err
	}
	if item.CommentCount, err = s.engagement.CountComments(ctx, kind, id); err != nil {
		return nil, err
	}
	if viewerID != 0 {
		if item.IsLiked, err = s.engagement.IsLikedBy(ctx, viewerID, kind, id); err != nil {
			return nil, err
		}
	}
	return item, nil
}

func (s *PostService) owned(ctx context.Context, accountID uint, kind models.ContentKind, id uint) (models.Content, error) {
	content, err := s.postRepo.GetContent(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if content.OwnerID() != accountID {
		return nil, models.NewForbiddenError("You can only modify your own posts")
	}
	return content, nil
}

func (s *PostService) Update(ctx context.Context, in UpdatePostInput) (*models.FeedItem, error) {
	if !in.Kind.Valid() {
		return nil, models.NewValidationError("unknown content kind: " + string(in.Kind))
	}
	if _, err := s.owned(ctx, in.AccountID, in.Kind, in.PostID); err != nil {
		return nil, err
	}

	switch in.Kind {
	case models.KindPost:
		caption, err := validation.OptionalText("caption", in.Text, models.MaxCommentLength)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if err := s.postRepo.UpdateImageCaption(ctx, in.PostID, caption); err != nil {
			return nil, err
		}
	case models.KindVerbal:
		content, err := validation.RequiredText("content", in.Text, models.MaxTextPostLength)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if err := s.postRepo.UpdateTextContent(ctx, in.PostID, content); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, in.Kind, in.PostID, in.AccountID)
}

// Delete removes an owned post together with its likes and comments.
func (s *PostService) Delete(ctx context.Context, accountID uint, kind models.ContentKind, id uint) error {
	if !kind.Valid() {
		return models.NewValidationError("unknown content kind: " + string(kind))
	}
	content, err := s.owned(ctx, accountID, kind, id)
	if err != nil {
		return err
	}

	switch kind {
	case models.KindPost:
		err = s.postRepo.DeleteImagePost(ctx, id)
	case models.KindVerbal:
		err = s.postRepo.DeleteTextPost(ctx, id)
	}
	if err != nil {
		return err
	}
	if post, ok := content.(*models.ImagePost); ok {
		s.media.Discard(ctx, post.ImageURL)
	}
	s.invalidate(ctx, accountID)
	return nil
}

func (s *PostService) invalidate(ctx context.Context, accountID uint) {
	if s.profiles != nil {
		s.profiles.InvalidateStats(ctx, accountID)
	}
}
