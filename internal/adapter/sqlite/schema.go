package sqlite

// defaultSchema is the empty application schema restored by ResetDatabase.
var defaultSchema = []string{
	`CREATE TABLE agents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		icon TEXT NOT NULL,
		system_prompt TEXT NOT NULL,
		default_task TEXT,
		model TEXT NOT NULL DEFAULT 'sonnet',
		enable_file_read BOOLEAN NOT NULL DEFAULT 1,
		enable_file_write BOOLEAN NOT NULL DEFAULT 1,
		enable_network BOOLEAN NOT NULL DEFAULT 0,
		hooks TEXT,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE agent_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		agent_id INTEGER NOT NULL,
		agent_name TEXT NOT NULL,
		agent_icon TEXT NOT NULL,
		task TEXT NOT NULL,
		model TEXT NOT NULL,
		project_path TEXT NOT NULL,
		session_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		pid INTEGER,
		process_started_at TEXT,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		completed_at TEXT,
		FOREIGN KEY (agent_id) REFERENCES agents(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE app_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TRIGGER update_agent_timestamp
		AFTER UPDATE ON agents
		FOR EACH ROW
		BEGIN
			UPDATE agents SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
		END`,
	`CREATE TRIGGER update_app_settings_timestamp
		AFTER UPDATE ON app_settings
		FOR EACH ROW
		BEGIN
			UPDATE app_settings SET updated_at = CURRENT_TIMESTAMP WHERE key = NEW.key;
		END`,
}
