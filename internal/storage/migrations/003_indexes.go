package migrations

import "gorm.io/gorm"

// migration003Up creates lookup indexes and the single-active-conference index
func migration003Up(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_profiles_email ON profiles(lower(email))",
		"CREATE INDEX IF NOT EXISTS idx_user_roles_role ON user_roles(role)",

		"CREATE UNIQUE INDEX IF NOT EXISTS idx_conferences_single_active ON conferences(is_active) WHERE is_active",
		"CREATE INDEX IF NOT EXISTS idx_conferences_dates ON conferences(start_date, end_date)",

		"CREATE INDEX IF NOT EXISTS idx_sessions_conference_start ON sessions(conference_id, start_time)",
		"CREATE INDEX IF NOT EXISTS idx_judge_sessions_judge ON judge_sessions(judge_id)",

		"CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status)",
		"CREATE INDEX IF NOT EXISTS idx_projects_created_at ON projects(created_at)",

		"CREATE INDEX IF NOT EXISTS idx_evaluation_criteria_order ON evaluation_criteria(conference_id, order_index, name)",
		"CREATE INDEX IF NOT EXISTS idx_evaluations_judge ON evaluations(judge_id)",
		"CREATE INDEX IF NOT EXISTS idx_evaluations_status ON evaluations(status)",

		"CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(scheduled_at) WHERE sent_at IS NULL",
	}

	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// migration003Down drops the indexes created in migration003Up
func migration003Down(db *gorm.DB) error {
	indexes := []string{
		"idx_reminders_due",
		"idx_evaluations_status",
		"idx_evaluations_judge",
		"idx_evaluation_criteria_order",
		"idx_projects_created_at",
		"idx_projects_status",
		"idx_judge_sessions_judge",
		"idx_sessions_conference_start",
		"idx_conferences_dates",
		"idx_conferences_single_active",
		"idx_user_roles_role",
		"idx_profiles_email",
	}

	for _, name := range indexes {
		if err := db.Exec("DROP INDEX IF EXISTS " + name).Error; err != nil {
			return err
		}
	}
	return nil
}
