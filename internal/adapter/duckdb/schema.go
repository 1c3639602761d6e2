//go:build duckdb

package duckdb

// defaultSchema runs after every table is dropped, so the sequences the
// old id defaults used are free to be recreated.
var defaultSchema = []string{
	"DROP SEQUENCE IF EXISTS agents_id_seq",
	"DROP SEQUENCE IF EXISTS agent_runs_id_seq",
	"CREATE SEQUENCE agents_id_seq",
	"CREATE SEQUENCE agent_runs_id_seq",
	`CREATE TABLE agents (
		id BIGINT PRIMARY KEY DEFAULT nextval('agents_id_seq'),
		name VARCHAR NOT NULL,
		icon VARCHAR NOT NULL,
		system_prompt VARCHAR NOT NULL,
		default_task VARCHAR,
		model VARCHAR NOT NULL DEFAULT 'sonnet',
		enable_file_read BOOLEAN NOT NULL DEFAULT TRUE,
		enable_file_write BOOLEAN NOT NULL DEFAULT TRUE,
		enable_network BOOLEAN NOT NULL DEFAULT FALSE,
		hooks VARCHAR,
		created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
		updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,
	`CREATE TABLE agent_runs (
		id BIGINT PRIMARY KEY DEFAULT nextval('agent_runs_id_seq'),
		agent_id BIGINT NOT NULL REFERENCES agents(id),
		agent_name VARCHAR NOT NULL,
		agent_icon VARCHAR NOT NULL,
		task VARCHAR NOT NULL,
		model VARCHAR NOT NULL,
		project_path VARCHAR NOT NULL,
		session_id VARCHAR NOT NULL,
		status VARCHAR NOT NULL DEFAULT 'pending',
		pid BIGINT,
		process_started_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
		completed_at TIMESTAMP
	)`,
	`CREATE TABLE app_settings (
		key VARCHAR PRIMARY KEY,
		value VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
		updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,
}
