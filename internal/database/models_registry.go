package database

import "quill/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.UserProfile{},
		&models.Article{},
		&models.Comment{},
	}
}
