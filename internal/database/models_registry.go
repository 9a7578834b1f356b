package database

import "fundboard/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models
// in dependency order.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Session{},
		&models.Profile{},
		&models.Post{},
		&models.Like{},
		&models.Dislike{},
		&models.Comment{},
	}
}
