package database

import "atelier/internal/models"

// PersistentModels returns every GORM model whose table the schema owns,
// parents before children.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Account{},
		&models.Profile{},
		&models.ImagePost{},
		&models.TextPost{},
		&models.Like{},
		&models.Comment{},
		&models.Follow{},
		&models.Message{},
		&models.Manifestation{},
		&models.Project{},
		&models.ProjectPhoto{},
		&models.ProjectCalendarEntry{},
		&models.ProjectFunding{},
		&models.ProjectBudgetItem{},
		&models.ProjectSupporter{},
	}
}
