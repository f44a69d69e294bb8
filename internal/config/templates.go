package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# stocksearch configuration

[api]
# Base URL of the quote API (the /api/... paths are appended)
base_url = "http://localhost:8000"
# Per-request timeout (e.g. "10s", "1m")
timeout = "10s"

[session]
# SQLite file holding the session cookie between runs.
# Empty means <config dir>/session.db
db_path = ""
# Append logins, signups, logouts and session expiries to an audit file
audit = true
# Empty means <config dir>/audit/audit.log
audit_path = ""

[ui]
# Enable colored output
color_enabled = true
# Maximum number of suggestions shown while typing
max_suggestions = 5

[logging]
# debug, info, warn, error
level = "info"
# Also log to stderr (leave off when using the interactive search)
console = false
# Log to a rotating file
file = true
# Empty means <config dir>/logs/stocksearch.log
file_path = ""
# Rotation: megabytes per file, files kept, days kept
max_size = 10
max_backups = 3
max_age = 14
`

// TemplatePath returns where the config template lives inside configDir.
func TemplatePath(configDir string) string {
	return filepath.Join(configDir, "config.toml")
}

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(TemplatePath(configDir), []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
