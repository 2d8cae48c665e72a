package repository

// Schema definitions for the Harrier database.
// Compatible with both SQLite and PostgreSQL.

const schemaPolicies = `
CREATE TABLE IF NOT EXISTS policies (
    id TEXT NOT NULL,
    version INTEGER NOT NULL,
    name TEXT NOT NULL,
    document TEXT NOT NULL,
    active INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, version)
);

CREATE INDEX IF NOT EXISTS idx_policies_active ON policies(id, active);
`

const schemaMatchResults = `
CREATE TABLE IF NOT EXISTS match_results (
    id TEXT PRIMARY KEY,
    application_id TEXT NOT NULL,
    results TEXT NOT NULL,
    best_lender_id TEXT,
    total_evaluated INTEGER NOT NULL,
    total_eligible INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_match_results_application ON match_results(application_id);
CREATE INDEX IF NOT EXISTS idx_match_results_created ON match_results(created_at);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaPolicies,
		schemaMatchResults,
	}
}
