package postgres

var defaultSchema = []string{
	`CREATE TABLE agents (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		icon TEXT NOT NULL,
		system_prompt TEXT NOT NULL,
		default_task TEXT,
		model TEXT NOT NULL DEFAULT 'sonnet',
		enable_file_read BOOLEAN NOT NULL DEFAULT TRUE,
		enable_file_write BOOLEAN NOT NULL DEFAULT TRUE,
		enable_network BOOLEAN NOT NULL DEFAULT FALSE,
		hooks TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE agent_runs (
		id BIGSERIAL PRIMARY KEY,
		agent_id BIGINT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
		agent_name TEXT NOT NULL,
		agent_icon TEXT NOT NULL,
		task TEXT NOT NULL,
		model TEXT NOT NULL,
		project_path TEXT NOT NULL,
		session_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		pid BIGINT,
		process_started_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		completed_at TIMESTAMPTZ
	)`,
	`CREATE TABLE app_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE OR REPLACE FUNCTION tablescope_touch_updated_at() RETURNS trigger AS $$
	BEGIN
		NEW.updated_at = now();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql`,
	`CREATE TRIGGER update_agent_timestamp
		BEFORE UPDATE ON agents
		FOR EACH ROW EXECUTE FUNCTION tablescope_touch_updated_at()`,
	`CREATE TRIGGER update_app_settings_timestamp
		BEFORE UPDATE ON app_settings
		FOR EACH ROW EXECUTE FUNCTION tablescope_touch_updated_at()`,
}
