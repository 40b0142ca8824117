package database

import (
	"fmt"
	"log/slog"
)

func NewSessionStore(databaseType, connectionString string) (store SessionStore, err error) {
	switch databaseType {
	case "sqlite":
		store, err = NewSQLiteSessionStore(connectionString)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", databaseType)
	}

	// Ensure database schema exists (idempotent), important for in-memory SQLite
	slog.Info("initializing database schema (ensuring tables exist)")
	if _, err = store.CreateDatabase(); err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	return store, nil
}
