package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

type SQLiteSessionStore struct {
	db               *sql.DB
	connectionString string
}

func NewSQLiteSessionStore(connectionString string) (SessionStore, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}

	return &SQLiteSessionStore{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteSessionStore) CreateDatabase() (*sql.DB, error) {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		date TEXT NOT NULL,
		tracking_number TEXT NOT NULL,
		image1_url TEXT NOT NULL,
		image2_url TEXT NOT NULL,
		details TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`)
	if err != nil {
		return nil, err
	}

	return s.db, nil
}

func (s *SQLiteSessionStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteSessionStore) DoesDatabaseExist() bool {
	// In SQLite, the database file is created when you connect to it.
	// So we can assume it exists if we can successfully ping the database.
	err := s.db.Ping()
	return err == nil
}

// AppendSession inserts the record in one statement, so an append is atomic
// and concurrent writers cannot lose each other's records the way a
// whole-file rewrite would.
func (s *SQLiteSessionStore) AppendSession(record *SessionRecord) error {
	if record == nil {
		return fmt.Errorf("nil session record")
	}

	details := record.Details
	if details == nil {
		details = []DetailRecord{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode details: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO sessions (id, name, date, tracking_number, image1_url, image2_url, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Name, record.Date, record.TrackingNumber,
		record.Image1URL, record.Image2URL, string(detailsJSON), record.CreatedAt,
	)
	return err
}

func (s *SQLiteSessionStore) GetAllSessions() ([]*SessionRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, name, date, tracking_number, image1_url, image2_url, details, created_at
		 FROM sessions ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close() // Explicitly ignore error as we're already returning an error from the function
	}()

	var records []*SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var detailsJSON string
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Date, &rec.TrackingNumber,
			&rec.Image1URL, &rec.Image2URL, &detailsJSON, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(detailsJSON), &rec.Details); err != nil {
			return nil, fmt.Errorf("failed to decode details for session %s: %w", rec.ID, err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func (s *SQLiteSessionStore) CountSessions() (int, error) {
	row := s.db.QueryRow("SELECT COUNT(*) FROM sessions")
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
