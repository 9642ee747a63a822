package database

import (
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

// InitDB opens the sqlite file and creates the metrics table. Only
// operational counters live here; alert and token state is
// session-scoped by contract and never written to disk.
func InitDB(dbPath string) error {
	var err error
	DB, err = sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	createMetricsTable := `
	CREATE TABLE IF NOT EXISTS metrics (
		metric_name TEXT NOT NULL PRIMARY KEY,
		metric_value REAL NOT NULL
	);`
	_, err = DB.Exec(createMetricsTable)
	if err != nil {
		return fmt.Errorf("failed to create metrics table: %w", err)
	}

	log.Debug("database initialized")
	return nil
}

func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
