// Package postgres connects the history store to a PostgreSQL server.
package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Open connects with a lib/pq DSN such as
// "host=localhost port=5432 user=photos dbname=photos sslmode=disable"
// and checks the connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	logrus.Info("Connected Postgres!")
	return db, nil
}
