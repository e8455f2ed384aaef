// Package access is the single source of truth for what a user may do with
// a note: ownership beats grants, grants beat nothing.
package access

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/ahsanfayaz52/notesservice/internal/models"
	"github.com/ahsanfayaz52/notesservice/internal/store"
)

type Level int

const (
	None Level = iota
	Read
	Edit
	Owner
)

func (l Level) String() string {
	switch l {
	case Owner:
		return "owner"
	case Edit:
		return "edit"
	case Read:
		return "read"
	}
	return "none"
}

// Store is the slice of the storage layer the resolver needs.
type Store interface {
	GetNote(ctx context.Context, noteID int) (models.Note, error)
	GetShare(ctx context.Context, noteID, userID int) (models.ShareGrant, error)
}

// Resolve returns the effective access level of userID on noteID together
// with the note itself. A missing note surfaces as store.ErrNotFound.
func Resolve(ctx context.Context, s Store, userID, noteID int) (Level, models.Note, error) {
	note, err := s.GetNote(ctx, noteID)
	if err != nil {
		return None, models.Note{}, err
	}
	if note.UserID == userID {
		return Owner, note, nil
	}

	grant, err := s.GetShare(ctx, noteID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return None, note, nil
	}
	if err != nil {
		return None, models.Note{}, err
	}
	if grant.Permission == models.PermissionEdit {
		return Edit, note, nil
	}
	return Read, note, nil
}

func CanRead(l Level) bool  { return l >= Read }
func CanWrite(l Level) bool { return l >= Edit }
func CanShare(l Level) bool { return l == Owner }

// Sortable fields for the merged note list.
const (
	SortCreatedAt = "created_at"
	SortUpdatedAt = "updated_at"
	SortTitle     = "title"
)

// MergeNotes combines the owned and shared subsets into one slice and sorts
// it once, over the union, so owned and shared notes interleave. Unknown
// sort fields fall back to created_at, unknown orders to descending. The
// inputs are not modified.
func MergeNotes(owned, shared []models.NoteView, sortBy, order string) []models.NoteView {
	merged := make([]models.NoteView, 0, len(owned)+len(shared))
	merged = append(merged, owned...)
	merged = append(merged, shared...)

	switch sortBy {
	case SortUpdatedAt, SortTitle:
	default:
		sortBy = SortCreatedAt
	}
	asc := strings.EqualFold(order, "asc")

	sort.SliceStable(merged, func(i, j int) bool {
		var cmp int
		switch sortBy {
		case SortTitle:
			cmp = strings.Compare(strings.ToLower(merged[i].Title), strings.ToLower(merged[j].Title))
		case SortUpdatedAt:
			cmp = merged[i].UpdatedAt.Compare(merged[j].UpdatedAt)
		default:
			cmp = merged[i].CreatedAt.Compare(merged[j].CreatedAt)
		}
		if asc {
			return cmp < 0
		}
		return cmp > 0
	})
	return merged
}
