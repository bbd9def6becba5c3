package repository

import (
	"context"
	"time"

	"atelier/internal/models"

	"gorm.io/gorm"
)

// FeedFilter narrows a per-variant feed read. A nil AccountIDs means every
// owner; a non-nil empty slice matches nothing.
type FeedFilter struct {
	AccountIDs *[]uint
	Limit      int
	ViewerID   uint
}

// PostRepository defines persistence operations for image and text posts.
type PostRepository interface {
	CreateImagePost(ctx context.Context, post *models.ImagePost) error
	CreateTextPost(ctx context.Context, post *models.TextPost) error
	GetImagePost(ctx context.Context, id uint) (*models.ImagePost, error)
	GetTextPost(ctx context.Context, id uint) (*models.TextPost, error)
	GetContent(ctx context.Context, kind models.ContentKind, id uint) (models.Content, error)
	UpdateImageCaption(ctx context.Context, id uint, caption string) error
	UpdateTextContent(ctx context.Context, id uint, content string) error
	DeleteImagePost(ctx context.Context, id uint) error
	DeleteTextPost(ctx context.Context, id uint) error
	ListImageFeed(ctx context.Context, filter FeedFilter) ([]models.FeedItem, error)
	ListTextFeed(ctx context.Context, filter FeedFilter) ([]models.FeedItem, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) CreateImagePost(ctx context.Context, post *models.ImagePost) error {
	if err := r.db.WithContext(ctx).Omit("Account").Create(post).Error; err != nil {
		return mapError(err, "ImagePost", post.ID)
	}
	return nil
}

func (r *postRepository) CreateTextPost(ctx context.Context, post *models.TextPost) error {
	if err := r.db.WithContext(ctx).Omit("Account").Create(post).Error; err != nil {
		return mapError(err, "TextPost", post.ID)
	}
	return nil
}

func (r *postRepository) GetImagePost(ctx context.Context, id uint) (*models.ImagePost, error) {
	var post models.ImagePost
	if err := r.db.WithContext(ctx).Preload("Account.Profile").First(&post, id).Error; err != nil {
		return nil, mapError(err, "ImagePost", id)
	}
	return &post, nil
}

func (r *postRepository) GetTextPost(ctx context.Context, id uint) (*models.TextPost, error) {
	var post models.TextPost
	if err := r.db.WithContext(ctx).Preload("Account.Profile").First(&post, id).Error; err != nil {
		return nil, mapError(err, "TextPost", id)
	}
	return &post, nil
}

// GetContent loads the variant named by kind.
func (r *postRepository) GetContent(ctx context.Context, kind models.ContentKind, id uint) (models.Content, error) {
	switch kind {
	case models.KindPost:
		post, err := r.GetImagePost(ctx, id)
		if err != nil {
			return nil, err
		}
		return post, nil
	case models.KindVerbal:
		post, err := r.GetTextPost(ctx, id)
		if err != nil {
			return nil, err
		}
		return post, nil
	}
	return nil, models.NewValidationError("unknown content kind: " + string(kind))
}

func (r *postRepository) UpdateImageCaption(ctx context.Context, id uint, caption string) error {
	res := r.db.WithContext(ctx).Model(&models.ImagePost{}).Where("id = ?", id).Update("caption", caption)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("ImagePost", id)
	}
	return nil
}

func (r *postRepository) UpdateTextContent(ctx context.Context, id uint, content string) error {
	res := r.db.WithContext(ctx).Model(&models.TextPost{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("TextPost", id)
	}
	return nil
}

// DeleteImagePost removes the post and its likes and comments together.
func (r *postRepository) DeleteImagePost(ctx context.Context, id uint) error {
	return r.deleteContent(ctx, &models.ImagePost{}, models.KindPost, id, "ImagePost")
}

// DeleteTextPost removes the post and its likes and comments together.
func (r *postRepository) DeleteTextPost(ctx context.Context, id uint) error {
	return r.deleteContent(ctx, &models.TextPost{}, models.KindVerbal, id, "TextPost")
}

func (r *postRepository) deleteContent(ctx context.Context, model interface{}, kind models.ContentKind, id uint, resource string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := PurgeTarget(tx, kind, id); err != nil {
			return err
		}
		res := tx.Delete(model, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return mapError(err, resource, id)
}

type feedRow struct {
	ID           uint
	AccountID    uint
	Username     string
	OwnerImage   string
	CreatedAt    time.Time
	ImageURL     string
	Caption      string
	Content      string
	LikeCount    int64
	CommentCount int64
	IsLiked      bool
}

func (row feedRow) item(kind models.ContentKind) models.FeedItem {
	item := models.FeedItem{
		ID:   row.ID,
		Kind: kind,
		Owner: models.AccountSummary{
			ID:       row.AccountID,
			Username: row.Username,
			ImageURL: row.OwnerImage,
		},
		CreatedAt:    row.CreatedAt,
		LikeCount:    row.LikeCount,
		CommentCount: row.CommentCount,
		IsLiked:      row.IsLiked,
	}
	switch kind {
	case models.KindPost:
		item.Image = &models.ImagePayload{ImageURL: row.ImageURL, Caption: row.Caption}
	case models.KindVerbal:
		item.Text = &models.TextPayload{Content: row.Content}
	}
	return item
}

// ListImageFeed returns image posts newest first with engagement computed in
// the same query.
func (r *postRepository) ListImageFeed(ctx context.Context, filter FeedFilter) ([]models.FeedItem, error) {
	return r.listFeed(ctx, "image_posts", "p.image_url, p.caption", models.KindPost, filter)
}

// ListTextFeed returns text posts newest first with engagement computed in
// the same query.
func (r *postRepository) ListTextFeed(ctx context.Context, filter FeedFilter) ([]models.FeedItem, error) {
	return r.listFeed(ctx, "text_posts", "p.content", models.KindVerbal, filter)
}

func (r *postRepository) listFeed(
	ctx context.Context,
	table, payload string,
	kind models.ContentKind,
	filter FeedFilter,
) ([]models.FeedItem, error) {
	if filter.AccountIDs != nil && len(*filter.AccountIDs) == 0 {
		return []models.FeedItem{}, nil
	}

	query := r.db.WithContext(ctx).
		Table(table+" AS p").
		Select(
			"p.id, p.account_id, a.username, COALESCE(pr.image_url, '') AS owner_image, p.created_at, "+payload+", "+
				"(SELECT COUNT(*) FROM likes l WHERE l.kind = ? AND l.target_id = p.id) AS like_count, "+
				"(SELECT COUNT(*) FROM comments c WHERE c.kind = ? AND c.target_id = p.id) AS comment_count, "+
				"EXISTS (SELECT 1 FROM likes lv WHERE lv.kind = ? AND lv.target_id = p.id AND lv.account_id = ?) AS is_liked",
			kind, kind, kind, filter.ViewerID,
		).
		Joins("JOIN accounts a ON a.id = p.account_id").
		Joins("LEFT JOIN profiles pr ON pr.account_id = p.account_id")
	if filter.AccountIDs != nil {
		query = query.Where("p.account_id IN ?", *filter.AccountIDs)
	}
	query = paginate(query.Order("p.created_at DESC").Order("p.id DESC"), filter.Limit, 0)

	var rows []feedRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	items := make([]models.FeedItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.item(kind))
	}
	return items, nil
}
