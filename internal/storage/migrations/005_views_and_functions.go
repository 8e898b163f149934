package migrations

import "gorm.io/gorm"

// migration005Up creates reporting views
func migration005Up(db *gorm.DB) error {
	views := []string{
		`CREATE OR REPLACE VIEW session_occupancy AS
        SELECT
            s.id AS session_id,
            s.conference_id,
            s.max_judges,
            COUNT(js.id)::int AS registered_judges,
            (COUNT(js.id) FILTER (WHERE js.confirmed))::int AS confirmed_judges,
            GREATEST(s.max_judges - COUNT(js.id), 0)::int AS seats_left
        FROM sessions s
        LEFT JOIN judge_sessions js ON js.session_id = s.id
        GROUP BY s.id, s.conference_id, s.max_judges`,

		`CREATE OR REPLACE VIEW evaluation_progress AS
        SELECT
            p.id AS project_id,
            p.title,
            s.conference_id,
            COUNT(e.id)::int AS evaluations,
            (COUNT(e.id) FILTER (WHERE e.status = 'completed'))::int AS completed,
            AVG(e.total_score) FILTER (WHERE e.status = 'completed') AS mean_total
        FROM projects p
        LEFT JOIN sessions s ON s.id = p.session_id
        LEFT JOIN evaluations e ON e.project_id = p.id
        GROUP BY p.id, p.title, s.conference_id`,
	}

	for _, view := range views {
		if err := db.Exec(view).Error; err != nil {
			return err
		}
	}
	return nil
}

// migration005Down drops the views
func migration005Down(db *gorm.DB) error {
	for _, view := range []string{"evaluation_progress", "session_occupancy"} {
		if err := db.Exec("DROP VIEW IF EXISTS " + view).Error; err != nil {
			return err
		}
	}
	return nil
}
