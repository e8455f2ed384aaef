// Package store wraps the SQL database behind an explicit handle that is
// constructed once at startup and injected into every handler.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ahsanfayaz52/notesservice/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// --- users ---

func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string) (models.User, error) {
	var existing int
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM users WHERE email = ? OR username = ?", email, username).Scan(&existing)
	if err == nil {
		return models.User{}, ErrConflict
	}
	if err != sql.ErrNoRows {
		return models.User{}, fmt.Errorf("check existing user: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, email, password) VALUES (?, ?, ?)",
		username, email, passwordHash)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("user id: %w", err)
	}
	return s.GetUserByID(ctx, int(id))
}

func (s *Store) GetUserByID(ctx context.Context, id int) (models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, username, email, password, created_at, updated_at FROM users WHERE id = ?", id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, username, email, password, created_at, updated_at FROM users WHERE email = ?", email))
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, username, email, password, created_at, updated_at FROM users WHERE username = ?", username))
}

func (s *Store) DeleteUser(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) scanUser(row *sql.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// --- notes ---

func (s *Store) CreateNote(ctx context.Context, userID int, title, content, color string) (models.Note, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO notes (user_id, title, content, color) VALUES (?, ?, ?, ?)",
		userID, title, content, color)
	if err != nil {
		return models.Note{}, fmt.Errorf("insert note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Note{}, fmt.Errorf("note id: %w", err)
	}
	return s.GetNote(ctx, int(id))
}

func (s *Store) GetNote(ctx context.Context, noteID int) (models.Note, error) {
	var n models.Note
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, title, content, color, created_at, updated_at FROM notes WHERE id = ?",
		noteID).Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Color, &n.CreatedAt, &n.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.Note{}, ErrNotFound
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("scan note: %w", err)
	}
	return n, nil
}

// UpdateNote replaces title, content and color. The owning user_id column is
// deliberately not part of the statement: edits by a grantee must not move
// ownership.
func (s *Store) UpdateNote(ctx context.Context, noteID int, title, content, color string) (models.Note, error) {
	if _, err := s.GetNote(ctx, noteID); err != nil {
		return models.Note{}, err
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE notes SET title = ?, content = ?, color = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		title, content, color, noteID)
	if err != nil {
		return models.Note{}, fmt.Errorf("update note: %w", err)
	}
	return s.GetNote(ctx, noteID)
}

func (s *Store) DeleteNote(ctx context.Context, noteID int) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", noteID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOwnedNotes returns the caller's own notes, optionally filtered by a
// case-insensitive substring match on title or content.
func (s *Store) ListOwnedNotes(ctx context.Context, userID int, search string) ([]models.NoteView, error) {
	query := `SELECT id, user_id, title, content, color, created_at, updated_at
		FROM notes WHERE user_id = ?`
	args := []interface{}{userID}
	if search != "" {
		query += " AND (LOWER(title) LIKE ? OR LOWER(content) LIKE ?)"
		term := "%" + strings.ToLower(search) + "%"
		args = append(args, term, term)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query owned notes: %w", err)
	}
	defer rows.Close()

	var notes []models.NoteView
	for rows.Next() {
		var v models.NoteView
		if err := rows.Scan(&v.ID, &v.UserID, &v.Title, &v.Content, &v.Color, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan owned note: %w", err)
		}
		v.NoteType = models.NoteTypeOwner
		notes = append(notes, v)
	}
	return notes, rows.Err()
}

// ListSharedNotes returns notes other users have shared with userID, tagged
// with the owner's username and the grant's permission.
func (s *Store) ListSharedNotes(ctx context.Context, userID int, search string) ([]models.NoteView, error) {
	query := `SELECT n.id, n.user_id, n.title, n.content, n.color, n.created_at, n.updated_at,
			u.username, ns.permission
		FROM notes n
		JOIN note_shares ns ON ns.note_id = n.id
		JOIN users u ON u.id = n.user_id
		WHERE ns.shared_with_user_id = ?`
	args := []interface{}{userID}
	if search != "" {
		query += " AND (LOWER(n.title) LIKE ? OR LOWER(n.content) LIKE ?)"
		term := "%" + strings.ToLower(search) + "%"
		args = append(args, term, term)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query shared notes: %w", err)
	}
	defer rows.Close()

	var notes []models.NoteView
	for rows.Next() {
		var v models.NoteView
		if err := rows.Scan(&v.ID, &v.UserID, &v.Title, &v.Content, &v.Color, &v.CreatedAt, &v.UpdatedAt,
			&v.OwnerUsername, &v.Permission); err != nil {
			return nil, fmt.Errorf("scan shared note: %w", err)
		}
		v.NoteType = models.NoteTypeShared
		notes = append(notes, v)
	}
	return notes, rows.Err()
}

// --- shares ---

func (s *Store) GetShare(ctx context.Context, noteID, userID int) (models.ShareGrant, error) {
	var g models.ShareGrant
	err := s.db.QueryRowContext(ctx,
		`SELECT id, note_id, owner_id, shared_with_user_id, permission, created_at
		FROM note_shares WHERE note_id = ? AND shared_with_user_id = ?`,
		noteID, userID).Scan(&g.ID, &g.NoteID, &g.OwnerID, &g.GranteeID, &g.Permission, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return models.ShareGrant{}, ErrNotFound
	}
	if err != nil {
		return models.ShareGrant{}, fmt.Errorf("scan share: %w", err)
	}
	return g, nil
}

// Share actions reported back in the share manifest.
const (
	ShareActionShared  = "shared"
	ShareActionUpdated = "updated"
)

// UpsertShare creates a grant or replaces the permission of an existing one.
// Select-then-write instead of a dialect-specific upsert: the caller needs to
// know which of the two happened.
func (s *Store) UpsertShare(ctx context.Context, noteID, ownerID, granteeID int, permission string) (string, error) {
	_, err := s.GetShare(ctx, noteID, granteeID)
	if err == nil {
		_, err = s.db.ExecContext(ctx,
			"UPDATE note_shares SET permission = ? WHERE note_id = ? AND shared_with_user_id = ?",
			permission, noteID, granteeID)
		if err != nil {
			return "", fmt.Errorf("update share: %w", err)
		}
		return ShareActionUpdated, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO note_shares (note_id, owner_id, shared_with_user_id, permission) VALUES (?, ?, ?, ?)",
		noteID, ownerID, granteeID, permission)
	if err != nil {
		return "", fmt.Errorf("insert share: %w", err)
	}
	return ShareActionShared, nil
}

func (s *Store) ListShares(ctx context.Context, noteID int) ([]models.ShareInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT u.username, ns.permission, ns.created_at
		FROM note_shares ns
		JOIN users u ON u.id = ns.shared_with_user_id
		WHERE ns.note_id = ?
		ORDER BY ns.created_at DESC`, noteID)
	if err != nil {
		return nil, fmt.Errorf("query shares: %w", err)
	}
	defer rows.Close()

	var shares []models.ShareInfo
	for rows.Next() {
		var si models.ShareInfo
		if err := rows.Scan(&si.Username, &si.Permission, &si.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		shares = append(shares, si)
	}
	return shares, rows.Err()
}

func (s *Store) DeleteShare(ctx context.Context, noteID, granteeID int) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM note_shares WHERE note_id = ? AND shared_with_user_id = ?", noteID, granteeID)
	if err != nil {
		return fmt.Errorf("delete share: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
