package server

import (
	"atelier/internal/models"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetHomeFeed handles GET /api/v1/feed
// @Summary Home feed
// @Description Posts of followed accounts and the caller, newest first
// @Tags feed
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max items" default(50)
// @Success 200 {array} models.FeedItem
// @Router /feed [get]
func (s *Server) GetHomeFeed(c *fiber.Ctx) error {
	page := parsePagination(c, service.DefaultFeedLimit)
	items, err := s.feedService.Home(c.UserContext(), accountID(c), page.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// GetGlobalFeed handles GET /api/v1/feed/global
// @Summary Global feed
// @Tags feed
// @Produce json
// @Param limit query int false "Max items" default(50)
// @Success 200 {array} models.FeedItem
// @Router /feed/global [get]
func (s *Server) GetGlobalFeed(c *fiber.Ctx) error {
	page := parsePagination(c, service.DefaultFeedLimit)
	items, err := s.feedService.Global(c.UserContext(), accountID(c), page.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// CreateTextPost handles POST /api/v1/posts/text
// @Summary Create a text post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{content=string} true "Post"
// @Success 201 {object} models.FeedItem
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/text [post]
func (s *Server) CreateTextPost(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	item, err := s.postService.CreateTextPost(c.UserContext(), service.CreateTextPostInput{
		AccountID: accountID(c),
		Content:   req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// CreateImagePost handles POST /api/v1/posts/image
// @Summary Create an image post
// @Tags posts
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image"
// @Param caption formData string false "Caption"
// @Success 201 {object} models.FeedItem
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/image [post]
func (s *Server) CreateImagePost(c *fiber.Ctx) error {
	image, err := formImage(c, "image")
	if err != nil {
		return respondError(c, err)
	}
	if image == nil {
		return badRequest(c, "No file uploaded")
	}

	item, err := s.postService.CreateImagePost(c.UserContext(), service.CreateImagePostInput{
		AccountID: accountID(c),
		Caption:   c.FormValue("caption"),
		Image:     *image,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// GetPost handles GET /api/v1/posts/:kind/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param kind path string true "post or verbal"
// @Param id path int true "Post ID"
// @Success 200 {object} models.FeedItem
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{kind}/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	kind, err := s.parseKind(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	item, err := s.postService.Get(c.UserContext(), kind, id, accountID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// UpdatePost handles PATCH /api/v1/posts/:kind/:id. "text" is the caption of
// an image post or the content of a text post.
// @Summary Edit a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind path string true "post or verbal"
// @Param id path int true "Post ID"
// @Param request body object{text=string} true "New caption or content"
// @Success 200 {object} models.FeedItem
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{kind}/{id} [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	kind, err := s.parseKind(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Text    *string `json:"text"`
		Caption *string `json:"caption"`
		Content *string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	text := req.Text
	if text == nil {
		text = req.Caption
	}
	if text == nil {
		text = req.Content
	}
	if text == nil {
		return badRequest(c, "text is required")
	}

	item, err := s.postService.Update(c.UserContext(), service.UpdatePostInput{
		AccountID: accountID(c),
		Kind:      kind,
		PostID:    id,
		Text:      *text,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// DeletePost handles DELETE /api/v1/posts/:kind/:id
// @Summary Delete a post
// @Description Removes the post with its likes and comments
// @Tags posts
// @Security BearerAuth
// @Param kind path string true "post or verbal"
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{kind}/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	kind, err := s.parseKind(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.Delete(c.UserContext(), accountID(c), kind, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleLike handles POST /api/v1/posts/:kind/:id/like
// @Summary Toggle like
// @Description Likes the post, or removes an existing like
// @Tags engagement
// @Produce json
// @Security BearerAuth
// @Param kind path string true "post or verbal"
// @Param id path int true "Post ID"
// @Success 200 {object} models.LikeState
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{kind}/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	kind, err := s.parseKind(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	state, err := s.engagementService.ToggleLike(c.UserContext(), accountID(c), kind, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

// GetComments handles GET /api/v1/posts/:kind/:id/comments
// @Summary List comments
// @Tags engagement
// @Produce json
// @Param kind path string true "post or verbal"
// @Param id path int true "Post ID"
// @Success 200 {array} models.Comment
// @Router /posts/{kind}/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	kind, err := s.parseKind(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comments, err := s.engagementService.ListComments(c.UserContext(), kind, id)
	if err != nil {
		return respondError(c, err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/v1/posts/:kind/:id/comments
// @Summary Add a comment
// @Tags engagement
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind path string true "post or verbal"
// @Param id path int true "Post ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/{kind}/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	kind, err := s.parseKind(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	comment, err := s.engagementService.AddComment(c.UserContext(), accountID(c), kind, id, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment handles DELETE /api/v1/comments/:id
// @Summary Delete a comment
// @Tags engagement
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.engagementService.DeleteComment(c.UserContext(), accountID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
