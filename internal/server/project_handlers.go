package server

import (
	"atelier/internal/models"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

const defaultProjectPageSize = 20

// CreateProjectRequest is the JSON body of POST /api/v1/projects. Dates are
// YYYY-MM-DD; money is in cents.
type CreateProjectRequest struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	ProjectType      string   `json:"project_type"`
	Status           string   `json:"status"`
	BudgetType       string   `json:"budget_type"`
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date"`
	Collaborators    []string `json:"collaborators"`
	Manifestations   []string `json:"manifestations"`
	EnableFunding    bool     `json:"enable_funding"`
	FundingGoalCents int64    `json:"funding_goal_cents"`
}

// UpdateProjectRequest is the JSON body of PATCH /api/v1/projects/:id. Absent
// fields are unchanged; an empty date clears it.
type UpdateProjectRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ProjectType *string `json:"project_type"`
	Status      *string `json:"status"`
	BudgetType  *string `json:"budget_type"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

// SupportRequest is the JSON body of a contribution.
type SupportRequest struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	Message     string `json:"message"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// GetProjects handles GET /api/v1/projects
// @Summary List projects
// @Tags projects
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.Project
// @Router /projects [get]
func (s *Server) GetProjects(c *fiber.Ctx) error {
	page := parsePagination(c, defaultProjectPageSize)
	projects, err := s.projectService.List(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return c.JSON(projects)
}

// CreateProject handles POST /api/v1/projects
// @Summary Create a project
// @Description Optionally enables funding with a goal in cents
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateProjectRequest true "Project"
// @Success 201 {object} models.ProjectDetail
// @Failure 400 {object} models.ErrorResponse
// @Router /projects [post]
func (s *Server) CreateProject(c *fiber.Ctx) error {
	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	start, err := parseOptionalDate("start_date", req.StartDate)
	if err != nil {
		return respondError(c, err)
	}
	end, err := parseOptionalDate("end_date", req.EndDate)
	if err != nil {
		return respondError(c, err)
	}

	detail, err := s.projectService.Create(c.UserContext(), service.CreateProjectInput{
		CreatorID:      accountID(c),
		Title:          req.Title,
		Description:    req.Description,
		ProjectType:    req.ProjectType,
		Status:         req.Status,
		BudgetType:     req.BudgetType,
		StartDate:      start,
		EndDate:        end,
		Collaborators:  req.Collaborators,
		Manifestations: req.Manifestations,
		EnableFunding:  req.EnableFunding,
		FundingGoal:    req.FundingGoalCents,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(detail)
}

// GetProject handles GET /api/v1/projects/:id
// @Summary Project detail
// @Description Collaborators, photos, calendar, funding summary and progress
// @Tags projects
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} models.ProjectDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /projects/{id} [get]
func (s *Server) GetProject(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.projectService.Detail(c.UserContext(), id, accountID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// UpdateProject handles PATCH /api/v1/projects/:id
// @Summary Update a project
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param request body UpdateProjectRequest true "Changes"
// @Success 200 {object} models.ProjectDetail
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /projects/{id} [patch]
func (s *Server) UpdateProject(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	in := service.UpdateProjectInput{
		ActorID:     accountID(c),
		ProjectID:   id,
		Title:       req.Title,
		Description: req.Description,
		ProjectType: req.ProjectType,
		Status:      req.Status,
		BudgetType:  req.BudgetType,
	}
	if req.StartDate != nil {
		if in.StartDate, err = parseOptionalDate("start_date", *req.StartDate); err != nil {
			return respondError(c, err)
		}
		in.ClearStartDate = in.StartDate == nil
	}
	if req.EndDate != nil {
		if in.EndDate, err = parseOptionalDate("end_date", *req.EndDate); err != nil {
			return respondError(c, err)
		}
		in.ClearEndDate = in.EndDate == nil
	}

	detail, err := s.projectService.Update(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// UpdateProjectStatus handles PUT /api/v1/projects/:id/status
// @Summary Change project status
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param request body object{status=string} true "ongoing, development, completed or paused"
// @Success 200 {object} models.ProjectDetail
// @Router /projects/{id}/status [put]
func (s *Server) UpdateProjectStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	detail, err := s.projectService.UpdateStatus(c.UserContext(), accountID(c), id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// UploadProjectCover handles PUT /api/v1/projects/:id/cover
// @Summary Upload a cover image
// @Tags projects
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param image formData file true "Cover image"
// @Success 200 {object} models.ProjectDetail
// @Router /projects/{id}/cover [put]
func (s *Server) UploadProjectCover(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	image, err := formImage(c, "image")
	if err != nil {
		return respondError(c, err)
	}
	if image == nil {
		return badRequest(c, "No file uploaded")
	}

	detail, err := s.projectService.Update(c.UserContext(), service.UpdateProjectInput{
		ActorID:   accountID(c),
		ProjectID: id,
		Cover:     image,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// DeleteProject handles DELETE /api/v1/projects/:id
// @Summary Delete a project
// @Tags projects
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /projects/{id} [delete]
func (s *Server) DeleteProject(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.projectService.Delete(c.UserContext(), accountID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddCollaborator handles POST /api/v1/projects/:id/collaborators
// @Summary Add a collaborator
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param request body object{username=string} true "Collaborator"
// @Success 200 {array} models.AccountSummary
// @Router /projects/{id}/collaborators [post]
func (s *Server) AddCollaborator(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Username string `json:"username"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	list, err := s.projectService.AddCollaborator(c.UserContext(), accountID(c), id, req.Username)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// RemoveCollaborator handles DELETE /api/v1/projects/:id/collaborators/:username
func (s *Server) RemoveCollaborator(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	list, err := s.projectService.RemoveCollaborator(c.UserContext(), accountID(c), id, c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// AddManifestation handles POST /api/v1/projects/:id/manifestations
func (s *Server) AddManifestation(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	m, err := s.projectService.AddManifestation(c.UserContext(), accountID(c), id, req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

// AddProjectPhoto handles POST /api/v1/projects/:id/photos
// @Summary Upload a project photo
// @Tags projects
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param image formData file true "Photo"
// @Param caption formData string false "Caption"
// @Success 201 {object} models.ProjectPhoto
// @Router /projects/{id}/photos [post]
func (s *Server) AddProjectPhoto(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	image, err := formImage(c, "image")
	if err != nil {
		return respondError(c, err)
	}
	if image == nil {
		return badRequest(c, "No file uploaded")
	}

	photo, err := s.projectService.AddPhoto(c.UserContext(), service.AddPhotoInput{
		ActorID:   accountID(c),
		ProjectID: id,
		Caption:   c.FormValue("caption"),
		Image:     *image,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(photo)
}

// SetCalendarEntry handles PUT /api/v1/projects/:id/calendar/:date. Blank
// content removes the entry.
// @Summary Write a calendar day
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param date path string true "YYYY-MM-DD"
// @Param request body object{content=string} true "Entry"
// @Success 200 {object} models.ProjectCalendarEntry
// @Success 204
// @Router /projects/{id}/calendar/{date} [put]
func (s *Server) SetCalendarEntry(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	date, err := s.parseDateParam(c, "date")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	entry, err := s.projectService.SetCalendarEntry(c.UserContext(), accountID(c), id, date, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	if entry == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(entry)
}

// DeleteCalendarEntry handles DELETE /api/v1/projects/:id/calendar/:date
func (s *Server) DeleteCalendarEntry(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	date, err := s.parseDateParam(c, "date")
	if err != nil {
		return nil
	}
	if err := s.projectService.DeleteCalendarEntry(c.UserContext(), accountID(c), id, date); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFunding handles GET /api/v1/projects/:id/funding
// @Summary Funding summary
// @Tags funding
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} models.FundingSummary
// @Failure 404 {object} models.ErrorResponse
// @Router /projects/{id}/funding [get]
func (s *Server) GetFunding(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.projectService.Detail(c.UserContext(), id, accountID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail.Funding)
}

// SupportProject handles POST /api/v1/projects/:id/funding/support. Signed-in
// supporters are linked to their account; guests must give a name unless
// anonymous.
// @Summary Support a project
// @Tags funding
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body SupportRequest true "Contribution"
// @Success 201 {object} models.FundingSummary
// @Failure 400 {object} models.ErrorResponse
// @Router /projects/{id}/funding/support [post]
func (s *Server) SupportProject(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req SupportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	in := service.SupportInput{
		ProjectID:   id,
		Name:        req.Name,
		Amount:      req.AmountCents,
		Message:     req.Message,
		IsAnonymous: req.IsAnonymous,
	}
	if uid := accountID(c); uid != 0 {
		in.AccountID = &uid
	}

	if _, err := s.ledgerService.RecordSupport(c.UserContext(), in); err != nil {
		return respondError(c, err)
	}
	summary, err := s.ledgerService.FundingSummary(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(summary)
}

// AddBudgetItem handles POST /api/v1/projects/:id/funding/budget-items
// @Summary Add a budget line
// @Tags funding
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param request body object{category=string,amount_cents=int,description=string,order=int} true "Budget item"
// @Success 201 {object} models.ProjectBudgetItem
// @Failure 403 {object} models.ErrorResponse
// @Router /projects/{id}/funding/budget-items [post]
func (s *Server) AddBudgetItem(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Category    string `json:"category"`
		AmountCents int64  `json:"amount_cents"`
		Description string `json:"description"`
		Order       *int   `json:"order"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	item, err := s.ledgerService.AddBudgetItem(c.UserContext(), accountID(c), id, service.BudgetItemInput{
		Category:    req.Category,
		Amount:      req.AmountCents,
		Description: req.Description,
		Order:       req.Order,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// SetFundingGoal handles PUT /api/v1/projects/:id/funding/goal
// @Summary Set the funding goal
// @Tags funding
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param request body object{goal_cents=int} true "Goal"
// @Success 200 {object} models.FundingSummary
// @Router /projects/{id}/funding/goal [put]
func (s *Server) SetFundingGoal(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		GoalCents int64 `json:"goal_cents"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if _, err := s.ledgerService.SetGoal(c.UserContext(), accountID(c), id, req.GoalCents); err != nil {
		return respondError(c, err)
	}
	summary, err := s.ledgerService.FundingSummary(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}
