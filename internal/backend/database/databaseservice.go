package database

import "database/sql"

type SessionStore interface {
	CreateDatabase() (*sql.DB, error)
	DoesDatabaseExist() bool
	Close() error

	// AppendSession persists a new record in a single transaction. The store
	// is append-only; a duplicate ID is rejected by the primary key.
	AppendSession(record *SessionRecord) error
	GetAllSessions() ([]*SessionRecord, error)
	CountSessions() (int, error)
}
