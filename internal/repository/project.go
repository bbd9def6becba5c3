package repository

import (
	"context"
	"errors"
	"time"

	"atelier/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewProject carries the rows written alongside a project at creation.
type NewProject struct {
	Project         *models.Project
	CollaboratorIDs []uint
	Manifestations  []string
	EnableFunding   bool
	FundingGoal     int64
}

// ProjectRepository defines persistence operations for projects and their
// owned rows.
type ProjectRepository interface {
	Create(ctx context.Context, in NewProject) error
	GetByID(ctx context.Context, id uint) (*models.Project, error)
	GetDetail(ctx context.Context, id uint) (*models.Project, error)
	List(ctx context.Context, limit, offset int) ([]models.Project, error)
	ListForAccount(ctx context.Context, accountID uint) ([]models.Project, error)
	Search(ctx context.Context, q string, limit int) ([]models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	UpdateStatus(ctx context.Context, id uint, status models.ProjectStatus) error
	Delete(ctx context.Context, id uint) error
	AddCollaborator(ctx context.Context, projectID, accountID uint) error
	RemoveCollaborator(ctx context.Context, projectID, accountID uint) (bool, error)
	AddManifestation(ctx context.Context, projectID uint, name string) (*models.Manifestation, error)
	AddPhoto(ctx context.Context, photo *models.ProjectPhoto) error
	UpsertCalendarEntry(ctx context.Context, entry *models.ProjectCalendarEntry) error
	DeleteCalendarEntry(ctx context.Context, projectID uint, date time.Time) (bool, error)
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository returns a new ProjectRepository implementation.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

// Create writes the project, its join rows and the optional funding row in
// one transaction.
func (r *projectRepository) Create(ctx context.Context, in NewProject) error {
	p := in.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
			return err
		}
		for _, accountID := range in.CollaboratorIDs {
			if err := linkCollaborator(tx, p.ID, accountID); err != nil {
				return err
			}
		}
		for _, name := range in.Manifestations {
			if _, err := linkManifestation(tx, p.ID, name); err != nil {
				return err
			}
		}
		if in.EnableFunding {
			funding := &models.ProjectFunding{ProjectID: p.ID, Goal: in.FundingGoal}
			if err := tx.Omit(clause.Associations).Create(funding).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return mapError(err, "Project", p.Title)
}

// GetByID loads a project with its creator and collaborators, enough for
// permission checks.
func (r *projectRepository) GetByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).
		Preload("Creator.Profile").
		Preload("Collaborators").
		First(&project, id).Error
	if err != nil {
		return nil, mapError(err, "Project", id)
	}
	return &project, nil
}

// GetDetail loads a project with every owned collection.
func (r *projectRepository) GetDetail(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).
		Preload("Creator.Profile").
		Preload("Collaborators", func(db *gorm.DB) *gorm.DB { return db.Order("accounts.username ASC") }).
		Preload("Collaborators.Profile").
		Preload("Manifestations", func(db *gorm.DB) *gorm.DB { return db.Order("manifestations.name ASC") }).
		Preload("Photos", func(db *gorm.DB) *gorm.DB { return db.Order("uploaded_at DESC").Order("id DESC") }).
		Preload("CalendarEntries", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC") }).
		First(&project, id).Error
	if err != nil {
		return nil, mapError(err, "Project", id)
	}
	return &project, nil
}

func (r *projectRepository) List(ctx context.Context, limit, offset int) ([]models.Project, error) {
	var projects []models.Project
	query := r.db.WithContext(ctx).
		Preload("Creator.Profile").
		Preload("Manifestations").
		Order("created_at DESC").Order("id DESC")
	if err := paginate(query, limit, offset).Find(&projects).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return projects, nil
}

// ListForAccount returns projects the account created or collaborates on.
func (r *projectRepository) ListForAccount(ctx context.Context, accountID uint) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).
		Preload("Creator.Profile").
		Preload("Manifestations").
		Where("creator_id = ? OR id IN (?)", accountID,
			r.db.Table("project_collaborators").Select("project_id").Where("account_id = ?", accountID)).
		Order("created_at DESC").Order("id DESC").
		Find(&projects).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return projects, nil
}

// Search matches title or description containing q, case-insensitively.
func (r *projectRepository) Search(ctx context.Context, q string, limit int) ([]models.Project, error) {
	var projects []models.Project
	pattern := containsPattern(q)
	query := r.db.WithContext(ctx).
		Preload("Creator.Profile").
		Where("LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\'", pattern, pattern).
		Order("created_at DESC").Order("id DESC")
	if err := paginate(query, limit, 0).Find(&projects).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return projects, nil
}

// Update writes the editable columns of project.
func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	res := r.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ?", project.ID).
		Updates(map[string]interface{}{
			"title":           project.Title,
			"description":     project.Description,
			"project_type":    project.ProjectType,
			"status":          project.Status,
			"budget_type":     project.BudgetType,
			"cover_image_url": project.CoverImageURL,
			"start_date":      project.StartDate,
			"end_date":        project.EndDate,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Project", project.ID)
	}
	return nil
}

func (r *projectRepository) UpdateStatus(ctx context.Context, id uint, status models.ProjectStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Project", id)
	}
	return nil
}

// Delete removes a project and every row it owns.
func (r *projectRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fundingIDs := tx.Model(&models.ProjectFunding{}).Select("id").Where("project_id = ?", id)
		if err := tx.Where("funding_id IN (?)", fundingIDs).Delete(&models.ProjectSupporter{}).Error; err != nil {
			return err
		}
		if err := tx.Where("funding_id IN (?)", fundingIDs).Delete(&models.ProjectBudgetItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectFunding{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectCalendarEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectPhoto{}).Error; err != nil {
			return err
		}
		for _, join := range []string{"project_collaborators", "project_manifestations"} {
			if err := tx.Exec("DELETE FROM "+join+" WHERE project_id = ?", id).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Project{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return mapError(err, "Project", id)
}

func (r *projectRepository) AddCollaborator(ctx context.Context, projectID, accountID uint) error {
	if err := linkCollaborator(r.db.WithContext(ctx), projectID, accountID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *projectRepository) RemoveCollaborator(ctx context.Context, projectID, accountID uint) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		"DELETE FROM project_collaborators WHERE project_id = ? AND account_id = ?", projectID, accountID)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// AddManifestation links the named manifestation, creating it on first use.
func (r *projectRepository) AddManifestation(ctx context.Context, projectID uint, name string) (*models.Manifestation, error) {
	var m *models.Manifestation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		m, err = linkManifestation(tx, projectID, name)
		return err
	})
	if err != nil {
		return nil, mapError(err, "Manifestation", name)
	}
	return m, nil
}

func (r *projectRepository) AddPhoto(ctx context.Context, photo *models.ProjectPhoto) error {
	if err := r.db.WithContext(ctx).Create(photo).Error; err != nil {
		return mapError(err, "ProjectPhoto", photo.ID)
	}
	return nil
}

// UpsertCalendarEntry writes the entry for (project, date), replacing the
// content of an existing one in place.
func (r *projectRepository) UpsertCalendarEntry(ctx context.Context, entry *models.ProjectCalendarEntry) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
		}).Create(entry).Error
		if err != nil {
			return err
		}
		var stored models.ProjectCalendarEntry
		if err := tx.Where("project_id = ? AND date = ?", entry.ProjectID, entry.Date).First(&stored).Error; err != nil {
			return err
		}
		*entry = stored
		return nil
	})
	return mapError(err, "ProjectCalendarEntry", entry.Date.Format(time.DateOnly))
}

func (r *projectRepository) DeleteCalendarEntry(ctx context.Context, projectID uint, date time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("project_id = ? AND date = ?", projectID, date).
		Delete(&models.ProjectCalendarEntry{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func linkCollaborator(tx *gorm.DB, projectID, accountID uint) error {
	return tx.Table("project_collaborators").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(map[string]interface{}{"project_id": projectID, "account_id": accountID}).Error
}

func linkManifestation(tx *gorm.DB, projectID uint, name string) (*models.Manifestation, error) {
	m := models.Manifestation{}
	err := tx.Where("name = ?", name).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		m = models.Manifestation{Name: name}
		err = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&m).Error
		if err == nil && m.ID == 0 {
			err = tx.Where("name = ?", name).First(&m).Error
		}
	}
	if err != nil {
		return nil, err
	}
	err = tx.Table("project_manifestations").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(map[string]interface{}{"project_id": projectID, "manifestation_id": m.ID}).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}
