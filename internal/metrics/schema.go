package metrics

// Migrate creates the necessary tables and indexes if they don't exist.
func (s *Store) Migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS metrics_schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM metrics_schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Metrics},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return err
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return err
		}

		if _, err := tx.Exec("INSERT INTO metrics_schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}

// Migration SQL statements
const migrationV1Metrics = `
CREATE TABLE IF NOT EXISTS validation_metrics (
	id TEXT PRIMARY KEY,
	template_id TEXT NOT NULL,
	persona_type TEXT NOT NULL,
	is_valid INTEGER NOT NULL,
	score INTEGER NOT NULL,
	error_count INTEGER NOT NULL DEFAULT 0,
	warning_count INTEGER NOT NULL DEFAULT 0,
	used_fallback INTEGER NOT NULL DEFAULT 0,
	validation_time_ms INTEGER NOT NULL DEFAULT 0,
	validated_at DATETIME NOT NULL,
	details TEXT
);

CREATE INDEX IF NOT EXISTS idx_validation_metrics_template
	ON validation_metrics(template_id);
CREATE INDEX IF NOT EXISTS idx_validation_metrics_validated_at
	ON validation_metrics(validated_at);
CREATE INDEX IF NOT EXISTS idx_validation_metrics_persona_type
	ON validation_metrics(persona_type);
`
