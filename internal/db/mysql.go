// db/db.go
package db

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/go-sql-driver/mysql"
)

func InitMySQL(user, password, host, dbName string) *sql.DB {
	// Build DSN (Data Source Name)
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", user, password, host, dbName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("Failed to connect to MySQL database: %v", err)
	}

	// Ping to verify connection
	if err := db.Ping(); err != nil {
		log.Fatalf("MySQL ping failed: %v", err)
	}

	createUsersTable := `CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(50) UNIQUE NOT NULL,
		email VARCHAR(100) UNIQUE NOT NULL,
		password VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB;`

	createNotesTable := `CREATE TABLE IF NOT EXISTS notes (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		title VARCHAR(255) NOT NULL,
		content TEXT NOT NULL,
		color VARCHAR(20) DEFAULT 'yellow',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB;`

	createSharesTable := `CREATE TABLE IF NOT EXISTS note_shares (
		id INT AUTO_INCREMENT PRIMARY KEY,
		note_id INT NOT NULL,
		owner_id INT NOT NULL,
		shared_with_user_id INT NOT NULL,
		permission ENUM('read', 'edit') DEFAULT 'read',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY unique_share (note_id, shared_with_user_id),
		FOREIGN KEY (note_id) REFERENCES notes(id) ON DELETE CASCADE,
		FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (shared_with_user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB;`

	if _, err := db.Exec(createUsersTable); err != nil {
		log.Fatalf("Error creating users table: %v", err)
	}
	if _, err := db.Exec(createNotesTable); err != nil {
		log.Fatalf("Error creating notes table: %v", err)
	}
	if _, err := db.Exec(createSharesTable); err != nil {
		log.Fatalf("Error creating note_shares table: %v", err)
	}

	return db
}
