package server

import (
	"time"

	"atelier/internal/models"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	Account   AuthAccount `json:"account"`
}

// AuthAccount is the caller's own account. Email only appears here.
type AuthAccount struct {
	ID       uint            `json:"id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Profile  *models.Profile `json:"profile,omitempty"`
}

// Register handles POST /api/v1/auth/register
// @Summary Register
// @Description Create an account with an artist profile and return a token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,password=string} true "Registration"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	account, err := s.accountService.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}
	return s.respondWithToken(c, fiber.StatusCreated, account)
}

// Login handles POST /api/v1/auth/login
// @Summary Login
// @Description Authenticate with username or email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{login=string,password=string} true "Credentials"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Login    string `json:"login"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	login := req.Login
	if login == "" {
		login = req.Username
	}
	if login == "" {
		login = req.Email
	}

	account, err := s.accountService.Authenticate(c.UserContext(), login, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return s.respondWithToken(c, fiber.StatusOK, account)
}

// Me handles GET /api/v1/auth/me
// @Summary Current account
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ProfileView
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	account, err := s.accountService.GetAccount(c.UserContext(), accountID(c))
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Account no longer exists"))
		}
		return respondError(c, err)
	}
	view, err := s.profileService.GetProfile(c.UserContext(), account.Username, account.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

func (s *Server) respondWithToken(c *fiber.Ctx, status int, account *models.Account) error {
	token, expires, err := s.auth.IssueToken(account.ID, account.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.Status(status).JSON(AuthResponse{
		Token:     token,
		ExpiresAt: expires,
		Account: AuthAccount{
			ID:       account.ID,
			Username: account.Username,
			Email:    account.Email,
			Profile:  account.Profile,
		},
	})
}
