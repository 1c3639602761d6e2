package mysql

var defaultSchema = []string{
	"CREATE TABLE agents (" +
		"id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY, " +
		"name VARCHAR(255) NOT NULL, " +
		"icon VARCHAR(64) NOT NULL, " +
		"system_prompt TEXT NOT NULL, " +
		"default_task TEXT, " +
		"model VARCHAR(64) NOT NULL DEFAULT 'sonnet', " +
		"enable_file_read BOOLEAN NOT NULL DEFAULT TRUE, " +
		"enable_file_write BOOLEAN NOT NULL DEFAULT TRUE, " +
		"enable_network BOOLEAN NOT NULL DEFAULT FALSE, " +
		"hooks TEXT, " +
		"created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP, " +
		"updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" +
		") ENGINE=InnoDB",
	"CREATE TABLE agent_runs (" +
		"id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY, " +
		"agent_id BIGINT NOT NULL, " +
		"agent_name VARCHAR(255) NOT NULL, " +
		"agent_icon VARCHAR(64) NOT NULL, " +
		"task TEXT NOT NULL, " +
		"model VARCHAR(64) NOT NULL, " +
		"project_path TEXT NOT NULL, " +
		"session_id VARCHAR(255) NOT NULL, " +
		"status VARCHAR(32) NOT NULL DEFAULT 'pending', " +
		"pid BIGINT, " +
		"process_started_at DATETIME, " +
		"created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP, " +
		"completed_at DATETIME, " +
		"FOREIGN KEY (agent_id) REFERENCES agents(id) ON DELETE CASCADE" +
		") ENGINE=InnoDB",
	"CREATE TABLE app_settings (" +
		"`key` VARCHAR(255) NOT NULL PRIMARY KEY, " +
		"value TEXT NOT NULL, " +
		"created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP, " +
		"updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" +
		") ENGINE=InnoDB",
}
