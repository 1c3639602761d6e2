package completion

// commonKeywords are the SQL keywords every driver understands.
var commonKeywords = []string{
	"SELECT", "FROM", "WHERE", "JOIN", "LEFT", "RIGHT", "INNER", "OUTER",
	"CROSS", "ON", "AND", "OR", "NOT", "IN", "EXISTS", "BETWEEN",
	"LIKE", "IS", "NULL", "AS", "CASE", "WHEN", "THEN", "ELSE",
	"END", "INSERT", "INTO", "VALUES", "UPDATE", "SET", "DELETE", "CREATE",
	"ALTER", "DROP", "TABLE", "VIEW", "INDEX", "UNIQUE", "PRIMARY", "KEY",
	"FOREIGN", "REFERENCES", "DEFAULT", "CHECK", "GROUP", "BY", "ORDER",
	"ASC", "DESC", "HAVING", "LIMIT", "OFFSET", "DISTINCT", "UNION",
	"WITH", "BEGIN", "COMMIT", "ROLLBACK", "EXPLAIN", "IF",
}

var dialectKeywords = map[string][]string{
	"postgres": {"ILIKE", "RETURNING", "SERIAL", "BIGSERIAL", "LATERAL", "SCHEMA", "JSONB", "TRUNCATE", "COPY"},
	"mysql":    {"AUTO_INCREMENT", "ENGINE", "SHOW", "DESCRIBE", "USE", "TABLES", "COLUMNS", "UNSIGNED", "TRUNCATE"},
	"sqlite":   {"PRAGMA", "AUTOINCREMENT", "GLOB", "ROWID", "WITHOUT", "STRICT", "VACUUM", "RETURNING"},
	"duckdb":   {"PIVOT", "UNPIVOT", "QUALIFY", "SAMPLE", "STRUCT", "DESCRIBE", "SUMMARIZE", "RETURNING"},
}

var commonFunctions = []string{
	"COUNT", "SUM", "AVG", "MIN", "MAX", "COALESCE", "NULLIF", "CAST",
	"LOWER", "UPPER", "TRIM", "LENGTH", "SUBSTR", "REPLACE", "ABS", "ROUND",
	"CURRENT_TIMESTAMP", "CURRENT_DATE", "ROW_NUMBER", "RANK", "LAG", "LEAD",
}

var dialectFunctions = map[string][]string{
	"postgres": {"NOW", "STRING_AGG", "ARRAY_AGG", "JSONB_BUILD_OBJECT", "TO_CHAR", "DATE_TRUNC"},
	"mysql":    {"NOW", "GROUP_CONCAT", "JSON_OBJECT", "DATE_FORMAT", "IFNULL"},
	"sqlite":   {"IFNULL", "GROUP_CONCAT", "JSON_EXTRACT", "DATETIME", "STRFTIME", "TYPEOF"},
	"duckdb":   {"NOW", "STRING_AGG", "LIST", "STRFTIME", "DATE_TRUNC"},
}

// KeywordsForDialect returns the common keywords plus those of driver.
func KeywordsForDialect(driver string) []string {
	return append(append([]string(nil), commonKeywords...), dialectKeywords[driver]...)
}

// FunctionsForDialect returns the common functions plus those of driver.
func FunctionsForDialect(driver string) []string {
	return append(append([]string(nil), commonFunctions...), dialectFunctions[driver]...)
}
