package models

import (
	"time"
)

// ProjectType distinguishes solo from collaborative projects.
type ProjectType string

const (
	ProjectSolo          ProjectType = "solo"
	ProjectCollaborative ProjectType = "collaborative"
)

// Valid reports whether t is a known project type.
func (t ProjectType) Valid() bool {
	return t == ProjectSolo || t == ProjectCollaborative
}

// ProjectStatus is the lifecycle stage of a project.
type ProjectStatus string

const (
	StatusOngoing     ProjectStatus = "ongoing"
	StatusDevelopment ProjectStatus = "development"
	StatusCompleted   ProjectStatus = "completed"
	StatusPaused      ProjectStatus = "paused"
)

// Valid reports whether s is a known status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusOngoing, StatusDevelopment, StatusCompleted, StatusPaused:
		return true
	}
	return false
}

// BudgetType describes how a project is financed.
type BudgetType string

const (
	BudgetNone         BudgetType = "none"
	BudgetSelf         BudgetType = "self"
	BudgetGrant        BudgetType = "grant"
	BudgetSeeking      BudgetType = "seeking"
	BudgetCommissioned BudgetType = "commissioned"
)

// Valid reports whether b is a known budget type.
func (b BudgetType) Valid() bool {
	switch b {
	case BudgetNone, BudgetSelf, BudgetGrant, BudgetSeeking, BudgetCommissioned:
		return true
	}
	return false
}

// Field limits for projects and their children.
const (
	MaxProjectTitleLength  = 200
	MaxPhotoCaptionLength  = 200
	MaxManifestationLength = 50
)

// Project is a creative project owned by its creator.
type Project struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	CreatorID     uint          `gorm:"not null;index" json:"creator_id"`
	Creator       Account       `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"creator"`
	Title         string        `gorm:"size:200;not null" json:"title"`
	Description   string        `gorm:"type:text;not null" json:"description"`
	ProjectType   ProjectType   `gorm:"type:varchar(20);not null;default:'solo'" json:"project_type"`
	Status        ProjectStatus `gorm:"type:varchar(20);not null;default:'ongoing'" json:"status"`
	BudgetType    BudgetType    `gorm:"type:varchar(20);not null;default:'none'" json:"budget_type"`
	CoverImageURL string        `json:"cover_image_url,omitempty"`
	StartDate     *time.Time    `gorm:"type:date" json:"start_date,omitempty"`
	EndDate       *time.Time    `gorm:"type:date" json:"end_date,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	Collaborators   []Account              `gorm:"many2many:project_collaborators;constraint:OnDelete:CASCADE" json:"collaborators,omitempty"`
	Manifestations  []Manifestation        `gorm:"many2many:project_manifestations;constraint:OnDelete:CASCADE" json:"manifestations,omitempty"`
	Photos          []ProjectPhoto         `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"photos,omitempty"`
	CalendarEntries []ProjectCalendarEntry `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"calendar_entries,omitempty"`
	Funding         *ProjectFunding        `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}

// HasCollaborator reports whether accountID is in the collaborator set.
func (p *Project) HasCollaborator(accountID uint) bool {
	for _, c := range p.Collaborators {
		if c.ID == accountID {
			return true
		}
	}
	return false
}

// Manifestation is a named medium or form a project manifests in.
type Manifestation struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:50;uniqueIndex;not null" json:"name"`
}

// ProjectPhoto is an image attached to a project.
type ProjectPhoto struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProjectID  uint      `gorm:"not null;index" json:"project_id"`
	ImageURL   string    `gorm:"not null" json:"image_url"`
	Caption    string    `gorm:"size:200" json:"caption"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

// ProjectCalendarEntry is a project's note for one day. (ProjectID, Date) is unique.
type ProjectCalendarEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"not null;uniqueIndex:idx_calendar_project_date" json:"project_id"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:idx_calendar_project_date" json:"date"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CalendarMarker places a calendar entry on the project timeline.
type CalendarMarker struct {
	Date     string  `json:"date"`
	Position float64 `json:"position"`
	Label    string  `json:"label"`
}

// ProjectDetail is the full read model of a project page.
type ProjectDetail struct {
	Project
	ProgressPercent *int             `json:"progress_percent,omitempty"`
	DaysRemaining   *int             `json:"days_remaining,omitempty"`
	CalendarMarkers []CalendarMarker `json:"calendar_markers"`
	Funding         FundingSummary   `json:"funding"`
	IsCreator       bool             `json:"is_creator"`
}
