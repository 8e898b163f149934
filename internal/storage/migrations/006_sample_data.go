package migrations

import "gorm.io/gorm"

// migration006Up inserts a demo conference for development
func migration006Up(db *gorm.DB) error {
	statements := []string{
		`INSERT INTO specializations (id, name, description) VALUES
            ('7a1e8400-e29b-41d4-a716-446655440001', 'Biology', 'Life sciences'),
            ('7a1e8400-e29b-41d4-a716-446655440002', 'Computer Science', 'Computing and software'),
            ('7a1e8400-e29b-41d4-a716-446655440003', 'Physics', 'Physical sciences')
        ON CONFLICT (name) DO NOTHING`,

		`INSERT INTO conferences (id, name, description, start_date, end_date, location, is_active) VALUES
            ('8b1e8400-e29b-41d4-a716-446655440000',
             'Student Poster Day 2026',
             'Annual undergraduate research poster session',
             '2026-11-12', '2026-11-13', 'Main Hall', FALSE)
        ON CONFLICT (id) DO NOTHING`,

		`INSERT INTO sessions (id, conference_id, name, start_time, end_time, location, max_judges) VALUES
            ('9c1e8400-e29b-41d4-a716-446655440001', '8b1e8400-e29b-41d4-a716-446655440000',
             'Morning session', '2026-11-12 09:00:00+00', '2026-11-12 12:00:00+00', 'Hall A', 5),
            ('9c1e8400-e29b-41d4-a716-446655440002', '8b1e8400-e29b-41d4-a716-446655440000',
             'Afternoon session', '2026-11-12 14:00:00+00', '2026-11-12 17:00:00+00', 'Hall B', 3)
        ON CONFLICT (id) DO NOTHING`,

		`INSERT INTO session_specializations (session_id, specialization_id) VALUES
            ('9c1e8400-e29b-41d4-a716-446655440001', '7a1e8400-e29b-41d4-a716-446655440001'),
            ('9c1e8400-e29b-41d4-a716-446655440002', '7a1e8400-e29b-41d4-a716-446655440002')
        ON CONFLICT DO NOTHING`,

		`INSERT INTO evaluation_criteria (id, conference_id, name, description, max_score, weight, order_index) VALUES
            ('ad1e8400-e29b-41d4-a716-446655440001', '8b1e8400-e29b-41d4-a716-446655440000',
             'Clarity', 'How clearly the poster communicates the work', 10, 1, 0),
            ('ad1e8400-e29b-41d4-a716-446655440002', '8b1e8400-e29b-41d4-a716-446655440000',
             'Methodology', 'Soundness of the research method', 5, 2, 1),
            ('ad1e8400-e29b-41d4-a716-446655440003', '8b1e8400-e29b-41d4-a716-446655440000',
             'Presentation', 'Oral defence of the poster', 10, 1, 2)
        ON CONFLICT (id) DO NOTHING`,

		`INSERT INTO projects (id, title, description, session_id, specialization_id, status, students, supervisor) VALUES
            ('be1e8400-e29b-41d4-a716-446655440001', 'Algae growth under LED spectra', NULL,
             '9c1e8400-e29b-41d4-a716-446655440001', '7a1e8400-e29b-41d4-a716-446655440001',
             'approved', '{"Ana Ruiz","Luis Vega"}', 'Dr. Paz'),
            ('be1e8400-e29b-41d4-a716-446655440002', 'Sparse attention for tabular data', NULL,
             '9c1e8400-e29b-41d4-a716-446655440002', '7a1e8400-e29b-41d4-a716-446655440002',
             'pending', '{"Marta Gil"}', NULL)
        ON CONFLICT (id) DO NOTHING`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// migration006Down removes the demo conference
func migration006Down(db *gorm.DB) error {
	statements := []string{
		"DELETE FROM projects WHERE id IN ('be1e8400-e29b-41d4-a716-446655440001', 'be1e8400-e29b-41d4-a716-446655440002')",
		"DELETE FROM conferences WHERE id = '8b1e8400-e29b-41d4-a716-446655440000'",
		"DELETE FROM specializations WHERE id IN ('7a1e8400-e29b-41d4-a716-446655440001', '7a1e8400-e29b-41d4-a716-446655440002', '7a1e8400-e29b-41d4-a716-446655440003')",
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
