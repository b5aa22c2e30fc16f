package database

import (
	"database/sql"
	"time"

	"collablist/config"
	"collablist/pkg/logger"

	_ "github.com/lib/pq"
)

const (
	pingAttempts = 5
	pingBackoff  = 2 * time.Second
)

// Connect opens the PostgreSQL pool and pings it a few times so a slow
// database start does not kill the server.
func Connect(cfg config.Database) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}

	for i := 0; i < pingAttempts; i++ {
		if err = db.Ping(); err == nil {
			logger.Sugar.Info("Successfully connected to the database")
			return db, nil
		}
		logger.Sugar.Infof("Database connection failed, retrying in %s... (%v)", pingBackoff, err)
		time.Sleep(pingBackoff)
	}
	db.Close()
	return nil, err
}
