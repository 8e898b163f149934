package migrations

import "gorm.io/gorm"

// migration004Up creates the capacity and score-range triggers plus updated_at maintenance.
// Both validation triggers raise check_violation (23514) so the application can
// tell them apart from other failures.
func migration004Up(db *gorm.DB) error {
	functions := []string{
		`CREATE OR REPLACE FUNCTION enforce_session_capacity()
        RETURNS TRIGGER AS $$
        DECLARE
            capacity INTEGER;
            registered INTEGER;
        BEGIN
            SELECT max_judges INTO capacity
            FROM sessions
            WHERE id = NEW.session_id
            FOR UPDATE;

            IF NOT FOUND THEN
                RETURN NEW;
            END IF;

            SELECT COUNT(*) INTO registered
            FROM judge_sessions
            WHERE session_id = NEW.session_id;

            IF registered >= capacity THEN
                RAISE EXCEPTION 'session % is full (% of % judges)', NEW.session_id, registered, capacity
                    USING ERRCODE = 'check_violation';
            END IF;

            RETURN NEW;
        END;
        $$ LANGUAGE plpgsql`,

		`CREATE OR REPLACE FUNCTION validate_evaluation_score()
        RETURNS TRIGGER AS $$
        DECLARE
            upper_bound INTEGER;
        BEGIN
            SELECT max_score INTO upper_bound
            FROM evaluation_criteria
            WHERE id = NEW.criteria_id;

            IF NOT FOUND THEN
                RETURN NEW;
            END IF;

            IF NEW.score < 0 OR NEW.score > upper_bound OR NEW.score = 'NaN'::double precision THEN
                RAISE EXCEPTION 'score % outside [0, %]', NEW.score, upper_bound
                    USING ERRCODE = 'check_violation';
            END IF;

            RETURN NEW;
        END;
        $$ LANGUAGE plpgsql`,

		`CREATE OR REPLACE FUNCTION touch_updated_at()
        RETURNS TRIGGER AS $$
        BEGIN
            NEW.updated_at = NOW();
            RETURN NEW;
        END;
        $$ LANGUAGE plpgsql`,
	}

	for _, fn := range functions {
		if err := db.Exec(fn).Error; err != nil {
			return err
		}
	}

	triggers := []string{
		`CREATE TRIGGER trigger_enforce_session_capacity
            BEFORE INSERT ON judge_sessions
            FOR EACH ROW EXECUTE FUNCTION enforce_session_capacity()`,

		`CREATE TRIGGER trigger_validate_evaluation_score
            BEFORE INSERT OR UPDATE OF score ON evaluation_scores
            FOR EACH ROW EXECUTE FUNCTION validate_evaluation_score()`,
	}
	for _, table := range []string{"profiles", "conferences", "sessions", "projects", "evaluations", "evaluation_scores"} {
		triggers = append(triggers, `CREATE TRIGGER trigger_touch_`+table+`
            BEFORE UPDATE ON `+table+`
            FOR EACH ROW EXECUTE FUNCTION touch_updated_at()`)
	}

	for _, trigger := range triggers {
		if err := db.Exec(trigger).Error; err != nil {
			return err
		}
	}
	return nil
}

// migration004Down drops triggers and functions
func migration004Down(db *gorm.DB) error {
	statements := []string{
		"DROP TRIGGER IF EXISTS trigger_enforce_session_capacity ON judge_sessions",
		"DROP TRIGGER IF EXISTS trigger_validate_evaluation_score ON evaluation_scores",
	}
	for _, table := range []string{"profiles", "conferences", "sessions", "projects", "evaluations", "evaluation_scores"} {
		statements = append(statements, "DROP TRIGGER IF EXISTS trigger_touch_"+table+" ON "+table)
	}
	statements = append(statements,
		"DROP FUNCTION IF EXISTS enforce_session_capacity()",
		"DROP FUNCTION IF EXISTS validate_evaluation_score()",
		"DROP FUNCTION IF EXISTS touch_updated_at()",
	)

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
