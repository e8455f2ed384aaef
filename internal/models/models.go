package models

import "time"

type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublicUser is the user record returned by the API. The password hash
// never leaves the store layer.
type PublicUser struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
}

type Note struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteView is a note as seen by a particular user: the note itself plus
// how the user came to see it.
type NoteView struct {
	Note
	NoteType      string `json:"note_type"`
	OwnerUsername string `json:"owner_username,omitempty"`
	Permission    string `json:"shared_permission,omitempty"`
}

type ShareGrant struct {
	ID         int       `json:"id"`
	NoteID     int       `json:"note_id"`
	OwnerID    int       `json:"owner_id"`
	GranteeID  int       `json:"shared_with_user_id"`
	Permission string    `json:"permission"`
	CreatedAt  time.Time `json:"created_at"`
}

// ShareInfo is one grantee entry in a note's share list.
type ShareInfo struct {
	Username   string    `json:"username"`
	Permission string    `json:"permission"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	PermissionRead = "read"
	PermissionEdit = "edit"
)

const (
	NoteTypeOwner  = "owner"
	NoteTypeShared = "shared"
)

const DefaultColor = "yellow"

var Colors = []string{"yellow", "pink", "blue", "green", "purple", "orange"}

func ValidColor(color string) bool {
	for _, c := range Colors {
		if c == color {
			return true
		}
	}
	return false
}

func ValidPermission(p string) bool {
	return p == PermissionRead || p == PermissionEdit
}
