package service

import (
	"context"
	"strings"
	"time"

	"atelier/internal/models"
	"atelier/internal/repository"
	"atelier/internal/validation"
)

// Calendar markers show at most this many characters of an entry.
const (
	MaxCalendarEntryLength = 2000
	MarkerLabelLength      = 60
)

type ProjectService struct {
	projectRepo repository.ProjectRepository
	accountRepo repository.AccountRepository
	ledger      *LedgerService
	media       *MediaService
	now         func() time.Time
}

type CreateProjectInput struct {
	CreatorID      uint
	Title          string
	Description    string
	ProjectType    string
	Status         string
	BudgetType     string
	StartDate      *time.Time
	EndDate        *time.Time
	Collaborators  []string
	Manifestations []string
	EnableFunding  bool
	FundingGoal    int64
	Cover          *UploadImageInput
}

// UpdateProjectInput changes the non-nil fields. ClearStartDate and
// ClearEndDate remove a date.
type UpdateProjectInput struct {
	ActorID        uint
	ProjectID      uint
	Title          *string
	Description    *string
	ProjectType    *string
	Status         *string
	BudgetType     *string
	StartDate      *time.Time
	EndDate        *time.Time
	ClearStartDate bool
	ClearEndDate   bool
	Cover          *UploadImageInput
}

type AddPhotoInput struct {
	ActorID   uint
	ProjectID uint
	Caption   string
	Image     UploadImageInput
}

func NewProjectService(
	projectRepo repository.ProjectRepository,
	accountRepo repository.AccountRepository,
	ledger *LedgerService,
	media *MediaService,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		accountRepo: accountRepo,
		ledger:      ledger,
		media:       media,
		now:         time.Now,
	}
}

// WithClock replaces the clock used for progress and days remaining.
func (s *ProjectService) WithClock(now func() time.Time) *ProjectService {
	s.now = now
	return s
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dateOnlyPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := dateOnly(*t)
	return &d
}

func daysBetween(from, to time.Time) int {
	return int(dateOnly(to).Sub(dateOnly(from)).Hours() / 24)
}

func validateDates(start, end *time.Time) error {
	if start != nil && end != nil && dateOnly(*end).Before(dateOnly(*start)) {
		return models.NewValidationError("End date cannot be before start date")
	}
	return nil
}

func (s *ProjectService) Create(ctx context.Context, in CreateProjectInput) (*models.ProjectDetail, error) {
	title, err := validation.RequiredText("title", in.Title, models.MaxProjectTitleLength)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	description, err := validation.RequiredText("description", in.Description, 0)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	project := &models.Project{
		CreatorID:   in.CreatorID,
		Title:       title,
		Description: description,
		ProjectType: models.ProjectSolo,
		Status:      models.StatusOngoing,
		BudgetType:  models.BudgetNone,
		StartDate:   dateOnlyPtr(in.StartDate),
		EndDate:     dateOnlyPtr(in.EndDate),
	}
	if err := applyEnums(project, strPtr(in.ProjectType), strPtr(in.Status), strPtr(in.BudgetType)); err != nil {
		return nil, err
	}
	if err := validateDates(project.StartDate, project.EndDate); err != nil {
		return nil, err
	}
	if in.FundingGoal < 0 {
		return nil, models.NewValidationError("Goal cannot be negative")
	}

	collaboratorIDs, err := s.resolveCollaborators(ctx, in.CreatorID, in.Collaborators)
	if err != nil {
		return nil, err
	}
	manifestations, err := normalizeManifestations(in.Manifestations)
	if err != nil {
		return nil, err
	}

	if in.Cover != nil {
		url, err := s.upload(ctx, in.CreatorID, *in.Cover)
		if err != nil {
			return nil, err
		}
		project.CoverImageURL = url
	}

	if err := s.projectRepo.Create(ctx, repository.NewProject{
		Project:         project,
		CollaboratorIDs: collaboratorIDs,
		Manifestations:  manifestations,
		EnableFunding:   in.EnableFunding,
		FundingGoal:     in.FundingGoal,
	}); err != nil {
		s.media.Discard(ctx, project.CoverImageURL)
		return nil, err
	}
	return s.Detail(ctx, project.ID, in.CreatorID)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func applyEnums(p *models.Project, projectType, status, budgetType *string) error {
	if projectType != nil {
		t := models.ProjectType(*projectType)
		if !t.Valid() {
			return models.NewValidationError("Invalid project type")
		}
		p.ProjectType = t
	}
	if status != nil {
		st := models.ProjectStatus(*status)
		if !st.Valid() {
			return models.NewValidationError("Invalid project status")
		}
		p.Status = st
	}
	if budgetType != nil {
		b := models.BudgetType(*budgetType)
		if !b.Valid() {
			return models.NewValidationError("Invalid budget type")
		}
		p.BudgetType = b
	}
	return nil
}

func (s *ProjectService) resolveCollaborators(ctx context.Context, creatorID uint, usernames []string) ([]uint, error) {
	seen := make(map[uint]struct{}, len(usernames))
	ids := make([]uint, 0, len(usernames))
	for _, name := range usernames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		account, err := s.accountRepo.GetByUsername(ctx, name)
		if err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				return nil, models.NewValidationError("Unknown collaborator: " + name)
			}
			return nil, err
		}
		if account.ID == creatorID {
			return nil, models.NewValidationError("The creator cannot be a collaborator")
		}
		if _, dup := seen[account.ID]; dup {
			continue
		}
		seen[account.ID] = struct{}{}
		ids = append(ids, account.ID)
	}
	return ids, nil
}

func normalizeManifestation(name string) (string, error) {
	n, err := validation.RequiredText("manifestation", name, models.MaxManifestationLength)
	if err != nil {
		return "", models.NewValidationError(err.Error())
	}
	return n, nil
}

func normalizeManifestations(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		n, err := normalizeManifestation(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}

func (s *ProjectService) upload(ctx context.Context, ownerID uint, in UploadImageInput) (string, error) {
	if s.media == nil {
		return "", models.NewValidationError("Image uploads are not available")
	}
	in.Target = UploadTargetProject
	in.OwnerID = ownerID
	return s.media.UploadImage(ctx, in)
}

// requireCreator loads the project and checks actorID created it. It runs
// on every mutating call.
func (s *ProjectService) requireCreator(ctx context.Context, actorID, projectID uint) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.CreatorID != actorID {
		return nil, models.NewForbiddenError("Only the project creator can do that")
	}
	return project, nil
}

func (s *ProjectService) List(ctx context.Context, limit, offset int) ([]models.Project, error) {
	return s.projectRepo.List(ctx, limit, offset)
}

// ListForAccount returns the projects username created or collaborates on.
func (s *ProjectService) ListForAccount(ctx context.Context, username string) ([]models.Project, error) {
	account, err := s.accountRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.projectRepo.ListForAccount(ctx, account.ID)
}

// Detail renders the project page with progress, markers and funding.
func (s *ProjectService) Detail(ctx context.Context, projectID, viewerID uint) (*models.ProjectDetail, error) {
	project, err := s.projectRepo.GetDetail(ctx, projectID)
	if err != nil {
		return nil, err
	}

	detail := &models.ProjectDetail{
		Project:   *project,
		IsCreator: viewerID != 0 && viewerID == project.CreatorID,
	}
	today := dateOnly(s.now().UTC())
	detail.ProgressPercent = ProgressPercent(project.StartDate, project.EndDate, today)
	if project.EndDate != nil {
		remaining := daysBetween(today, *project.EndDate)
		if remaining < 0 {
			remaining = 0
		}
		detail.DaysRemaining = &remaining
	}
	detail.CalendarMarkers = CalendarMarkers(project.StartDate, project.EndDate, project.CalendarEntries)

	if s.ledger != nil {
		if detail.Funding, err = s.ledger.FundingSummary(ctx, project.ID); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

// ProgressPercent is the share of the project timeline elapsed by today,
// clamped to [0, 100]. It is nil without both dates and 100 for a timeline
// that is zero days long.
func ProgressPercent(start, end *time.Time, today time.Time) *int {
	if start == nil || end == nil {
		return nil
	}
	pct := 100
	if total := daysBetween(*start, *end); total > 0 {
		ratio := float64(daysBetween(*start, today)) / float64(total)
		if ratio < 0 {
			ratio = 0
		}
		if ratio > 1 {
			ratio = 1
		}
		pct = int(ratio * 100)
	}
	return &pct
}

// CalendarMarkers places non-empty calendar entries that fall inside
// [start, end] on the timeline, as a percentage from the start.
func CalendarMarkers(start, end *time.Time, entries []models.ProjectCalendarEntry) []models.CalendarMarker {
	markers := []models.CalendarMarker{}
	if start == nil || end == nil {
		return markers
	}
	total := daysBetween(*start, *end)
	if total <= 0 {
		return markers
	}
	from, to := dateOnly(*start), dateOnly(*end)
	for _, e := range entries {
		if strings.TrimSpace(e.Content) == "" {
			continue
		}
		day := dateOnly(e.Date)
		if day.Before(from) || day.After(to) {
			continue
		}
		markers = append(markers, models.CalendarMarker{
			Date:     day.Format(time.DateOnly),
			Position: float64(daysBetween(from, day)) / float64(total) * 100,
			Label:    validation.Truncate(e.Content, MarkerLabelLength),
		})
	}
	return markers
}

func (s *ProjectService) Update(ctx context.Context, in UpdateProjectInput) (*models.ProjectDetail, error) {
	project, err := s.requireCreator(ctx, in.ActorID, in.ProjectID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title, err := validation.RequiredText("title", *in.Title, models.MaxProjectTitleLength)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		project.Title = title
	}
	if in.Description != nil {
		description, err := validation.RequiredText("description", *in.Description, 0)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		project.Description = description
	}
	if err := applyEnums(project, in.ProjectType, in.Status, in.BudgetType); err != nil {
		return nil, err
	}

	if in.ClearStartDate {
		project.StartDate = nil
	} else if in.StartDate != nil {
		project.StartDate = dateOnlyPtr(in.StartDate)
	}
	if in.ClearEndDate {
		project.EndDate = nil
	} else if in.EndDate != nil {
		project.EndDate = dateOnlyPtr(in.EndDate)
	}
	if err := validateDates(project.StartDate, project.EndDate); err != nil {
		return nil, err
	}

	previousCover := project.CoverImageURL
	uploaded := ""
	if in.Cover != nil {
		url, err := s.upload(ctx, in.ActorID, *in.Cover)
		if err != nil {
			return nil, err
		}
		project.CoverImageURL = url
		uploaded = url
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		s.media.Discard(ctx, uploaded)
		return nil, err
	}
	if uploaded != "" && previousCover != uploaded {
		s.media.Discard(ctx, previousCover)
	}
	return s.Detail(ctx, project.ID, in.ActorID)
}

func (s *ProjectService) UpdateStatus(ctx context.Context, actorID, projectID uint, status string) (*models.ProjectDetail, error) {
	st := models.ProjectStatus(status)
	if !st.Valid() {
		return nil, models.NewValidationError("Invalid project status")
	}
	if _, err := s.requireCreator(ctx, actorID, projectID); err != nil {
		return nil, err
	}
	if err := s.projectRepo.UpdateStatus(ctx, projectID, st); err != nil {
		return nil, err
	}
	return s.Detail(ctx, projectID, actorID)
}

// Delete removes the project and then its cover and photo blobs.
func (s *ProjectService) Delete(ctx context.Context, actorID, projectID uint) error {
	if _, err := s.requireCreator(ctx, actorID, projectID); err != nil {
		return err
	}
	project, err := s.projectRepo.GetDetail(ctx, projectID)
	if err != nil {
		return err
	}
	if err := s.projectRepo.Delete(ctx, projectID); err != nil {
		return err
	}
	s.media.Discard(ctx, project.CoverImageURL)
	for _, photo := range project.Photos {
		s.media.Discard(ctx, photo.ImageURL)
	}
	return nil
}

func (s *ProjectService) AddCollaborator(ctx context.Context, actorID, projectID uint, username string) ([]models.AccountSummary, error) {
	project, err := s.requireCreator(ctx, actorID, projectID)
	if err != nil {
		return nil, err
	}
	ids, err := s.resolveCollaborators(ctx, project.CreatorID, []string{username})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, models.NewValidationError("username is required")
	}
	if err := s.projectRepo.AddCollaborator(ctx, projectID, ids[0]); err != nil {
		return nil, err
	}
	return s.collaborators(ctx, projectID)
}

func (s *ProjectService) RemoveCollaborator(ctx context.Context, actorID, projectID uint, username string) ([]models.AccountSummary, error) {
	if _, err := s.requireCreator(ctx, actorID, projectID); err != nil {
		return nil, err
	}
	account, err := s.accountRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	removed, err := s.projectRepo.RemoveCollaborator(ctx, projectID, account.ID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, models.NewNotFoundError("Collaborator", username)
	}
	return s.collaborators(ctx, projectID)
}

func (s *ProjectService) collaborators(ctx context.Context, projectID uint) ([]models.AccountSummary, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return summaries(project.Collaborators), nil
}

func (s *ProjectService) AddManifestation(ctx context.Context, actorID, projectID uint, name string) (*models.Manifestation, error) {
	n, err := normalizeManifestation(name)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireCreator(ctx, actorID, projectID); err != nil {
		return nil, err
	}
	return s.projectRepo.AddManifestation(ctx, projectID, n)
}

func (s *ProjectService) AddPhoto(ctx context.Context, in AddPhotoInput) (*models.ProjectPhoto, error) {
	caption, err := validation.OptionalText("caption", in.Caption, models.MaxPhotoCaptionLength)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.requireCreator(ctx, in.ActorID, in.ProjectID); err != nil {
		return nil, err
	}
	url, err := s.upload(ctx, in.ActorID, in.Image)
	if err != nil {
		return nil, err
	}

	photo := &models.ProjectPhoto{ProjectID: in.ProjectID, ImageURL: url, Caption: caption}
	if err := s.projectRepo.AddPhoto(ctx, photo); err != nil {
		s.media.Discard(ctx, url)
		return nil, err
	}
	return photo, nil
}

// SetCalendarEntry writes the note for date, replacing any existing one.
// Blank content deletes the entry and returns nil.
func (s *ProjectService) SetCalendarEntry(ctx context.Context, actorID, projectID uint, date time.Time, content string) (*models.ProjectCalendarEntry, error) {
	body, err := validation.OptionalText("content", content, MaxCalendarEntryLength)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.requireCreator(ctx, actorID, projectID); err != nil {
		return nil, err
	}

	day := dateOnly(date)
	if body == "" {
		if _, err := s.projectRepo.DeleteCalendarEntry(ctx, projectID, day); err != nil {
			return nil, err
		}
		return nil, nil
	}

	entry := &models.ProjectCalendarEntry{ProjectID: projectID, Date: day, Content: body}
	if err := s.projectRepo.UpsertCalendarEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// DeleteCalendarEntry removes the note for date.
func (s *ProjectService) DeleteCalendarEntry(ctx context.Context, actorID, projectID uint, date time.Time) error {
	if _, err := s.requireCreator(ctx, actorID, projectID); err != nil {
		return err
	}
	removed, err := s.projectRepo.DeleteCalendarEntry(ctx, projectID, dateOnly(date))
	if err != nil {
		return err
	}
	if !removed {
		return models.NewNotFoundError("ProjectCalendarEntry", date.Format(time.DateOnly))
	}
	return nil
}
