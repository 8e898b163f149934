package migrations

import "gorm.io/gorm"

// migration001Up creates extensions and enum types
func migration001Up(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return err
	}

	types := []string{
		`CREATE TYPE app_role AS ENUM ('admin', 'judge', 'user')`,
		`CREATE TYPE project_status AS ENUM ('pending', 'approved', 'rejected')`,
		`CREATE TYPE evaluation_status AS ENUM ('pending', 'in_progress', 'completed')`,
	}

	for _, stmt := range types {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// migration001Down drops the enum types
func migration001Down(db *gorm.DB) error {
	for _, name := range []string{"evaluation_status", "project_status", "app_role"} {
		if err := db.Exec("DROP TYPE IF EXISTS " + name + " CASCADE").Error; err != nil {
			return err
		}
	}

	// NOTE: the uuid extension may be shared with other schemas
	return nil
}
