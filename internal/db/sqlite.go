// db/db.go
package db

import (
	"database/sql"
	"log"

	_ "github.com/mattn/go-sqlite3"
)

func InitSQLite(filepath string) *sql.DB {
	db, err := sql.Open("sqlite3", filepath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// SQLite does not enforce foreign keys unless asked; cascades depend on it
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		log.Fatalf("Error enabling foreign keys: %v", err)
	}

	createUsersTable := `CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	createNotesTable := `CREATE TABLE IF NOT EXISTS notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		color TEXT DEFAULT 'yellow',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
	);`

	createSharesTable := `CREATE TABLE IF NOT EXISTS note_shares (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		note_id INTEGER NOT NULL,
		owner_id INTEGER NOT NULL,
		shared_with_user_id INTEGER NOT NULL,
		permission TEXT DEFAULT 'read' CHECK(permission IN ('read', 'edit')),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(note_id, shared_with_user_id),
		FOREIGN KEY(note_id) REFERENCES notes(id) ON DELETE CASCADE,
		FOREIGN KEY(owner_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY(shared_with_user_id) REFERENCES users(id) ON DELETE CASCADE
	);`

	_, err = db.Exec(createUsersTable)
	if err != nil {
		log.Fatalf("Error creating users table: %v", err)
	}

	_, err = db.Exec(createNotesTable)
	if err != nil {
		log.Fatalf("Error creating notes table: %v", err)
	}

	_, err = db.Exec(createSharesTable)
	if err != nil {
		log.Fatalf("Error creating note_shares table: %v", err)
	}

	return db
}
