package server

import (
	"atelier/internal/models"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/v1/profiles/:username
// @Summary Get a profile
// @Description Public profile with counters and the caller's follow relationship
// @Tags profiles
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.ProfileView
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{username} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	view, err := s.profileService.GetProfile(c.UserContext(), c.Params("username"), accountID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// UpdateMyProfile handles PATCH /api/v1/profiles/me. It accepts JSON or a
// multipart form with an optional "image" file.
// @Summary Update own profile
// @Tags profiles
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param role formData string false "artist, collector or gallery"
// @Param bio formData string false "Bio"
// @Param image formData file false "Profile image"
// @Success 200 {object} models.ProfileView
// @Failure 400 {object} models.ErrorResponse
// @Router /profiles/me [patch]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	in := service.UpdateProfileInput{AccountID: accountID(c)}

	if isMultipart(c) {
		in.Role, _ = formValue(c, "role")
		in.Bio, _ = formValue(c, "bio")
		image, err := formImage(c, "image")
		if err != nil {
			return respondError(c, err)
		}
		in.Image = image
	} else {
		var req struct {
			Role *string `json:"role"`
			Bio  *string `json:"bio"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		in.Role = req.Role
		in.Bio = req.Bio
	}

	view, err := s.profileService.UpdateProfile(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// Follow handles POST /api/v1/profiles/:username/follow
// @Summary Follow an account
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} models.ProfileView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{username}/follow [post]
func (s *Server) Follow(c *fiber.Ctx) error {
	view, err := s.profileService.Follow(c.UserContext(), accountID(c), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// Unfollow handles DELETE /api/v1/profiles/:username/follow
// @Summary Unfollow an account
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} models.ProfileView
// @Router /profiles/{username}/follow [delete]
func (s *Server) Unfollow(c *fiber.Ctx) error {
	view, err := s.profileService.Unfollow(c.UserContext(), accountID(c), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// GetFollowers handles GET /api/v1/profiles/:username/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	list, err := s.profileService.Followers(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// GetFollowing handles GET /api/v1/profiles/:username/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	list, err := s.profileService.Following(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// GetProfileWall handles GET /api/v1/profiles/:username/wall
// @Summary Profile wall
// @Description Image and text posts of one account, newest first
// @Tags feed
// @Produce json
// @Param username path string true "Username"
// @Param limit query int false "Max items" default(50)
// @Success 200 {array} models.FeedItem
// @Router /profiles/{username}/wall [get]
func (s *Server) GetProfileWall(c *fiber.Ctx) error {
	owner, err := s.accountService.GetByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	page := parsePagination(c, service.DefaultFeedLimit)
	items, err := s.feedService.Profile(c.UserContext(), owner.ID, accountID(c), page.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// GetProfileProjects handles GET /api/v1/profiles/:username/projects
// @Summary Projects of an account
// @Description Projects the account created or collaborates on
// @Tags projects
// @Produce json
// @Param username path string true "Username"
// @Success 200 {array} models.Project
// @Router /profiles/{username}/projects [get]
func (s *Server) GetProfileProjects(c *fiber.Ctx) error {
	projects, err := s.projectService.ListForAccount(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return c.JSON(projects)
}
