package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/ahsanfayaz52/notesservice/internal/access"
	"github.com/ahsanfayaz52/notesservice/internal/auth"
	"github.com/ahsanfayaz52/notesservice/internal/models"
	"github.com/ahsanfayaz52/notesservice/internal/store"
	"github.com/gorilla/mux"
)

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Color   string `json:"color"`
}

func (req *noteRequest) validate() error {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return errors.New("Title is required")
	}
	if len(req.Title) > 255 {
		return errors.New("Title must be at most 255 characters")
	}
	if strings.TrimSpace(req.Content) == "" {
		return errors.New("Content is required")
	}
	if req.Color == "" {
		req.Color = models.DefaultColor
	}
	if !models.ValidColor(req.Color) {
		return errors.New("Invalid color")
	}
	return nil
}

func noteIDFromRequest(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["id"])
}

// ListNotesHandler returns the union of the caller's own notes and notes
// shared with them. Search filters each subset independently; the sort is
// applied once over the combined set.
func ListNotesHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.GetUserIDFromContext(r.Context())
		query := r.URL.Query()

		search := query.Get("search")
		sortBy := query.Get("sort")
		order := query.Get("order")

		owned, err := st.ListOwnedNotes(r.Context(), userID, search)
		if err != nil {
			log.Println("List owned notes error:", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch notes")
			return
		}
		shared, err := st.ListSharedNotes(r.Context(), userID, search)
		if err != nil {
			log.Println("List shared notes error:", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch notes")
			return
		}

		notes := access.MergeNotes(owned, shared, sortBy, order)
		writeJSON(w, http.StatusOK, map[string]interface{}{"notes": notes})
	}
}

// GetNoteHandler returns a single note to anyone with read access or better,
// tagged the same way as the list endpoint. Users with no access get the
// same 404 whether the note exists or not.
func GetNoteHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.GetUserIDFromContext(r.Context())
		noteID, err := noteIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusNotFound, "Note not found")
			return
		}

		level, note, err := access.Resolve(r.Context(), st, userID, noteID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Note not found")
			return
		}
		if err != nil {
			log.Println("Resolve access error:", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch note")
			return
		}
		if !access.CanRead(level) {
			writeError(w, http.StatusNotFound, "Note not found")
			return
		}

		view := models.NoteView{Note: note, NoteType: models.NoteTypeOwner}
		if level != access.Owner {
			view.NoteType = models.NoteTypeShared
			view.Permission = level.String()
			if owner, err := st.GetUserByID(r.Context(), note.UserID); err == nil {
				view.OwnerUsername = owner.Username
			}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"note": view})
	}
}

func CreateNoteHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.GetUserIDFromContext(r.Context())

		var req noteRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		note, err := st.CreateNote(r.Context(), userID, req.Title, req.Content, req.Color)
		if err != nil {
			log.Println("Create note error:", err)
			writeError(w, http.StatusInternalServerError, "Failed to create note")
			return
		}

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"message": "Note created successfully",
			"note":    note,
		})
	}
}

// UpdateNoteHandler lets the owner or an edit grantee replace title, content
// and color. Ownership never changes on update.
func UpdateNoteHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.GetUserIDFromContext(r.Context())
		noteID, err := noteIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusNotFound, "Note not found")
			return
		}

		var req noteRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		level, existing, err := access.Resolve(r.Context(), st, userID, noteID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Note not found")
			return
		}
		if err != nil {
			log.Println("Resolve access error:", err)
			writeError(w, http.StatusInternalServerError, "Failed to update note")
			return
		}
		if level == access.None {
			writeError(w, http.StatusNotFound, "Note not found")
			return
		}
		if !access.CanWrite(level) {
			writeError(w, http.StatusForbidden, "You don't have permission to edit this note")
			return
		}

		// omitting color keeps whatever the note already has
		if req.Color == "" {
			req.Color = existing.Color
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		note, err := st.UpdateNote(r.Context(), noteID, req.Title, req.Content, req.Color)
		if err != nil {
			log.Println("Update note error:", err)
			writeError(w, http.StatusInternalServerError, "Failed to update note")
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Note updated successfully",
			"note":    note,
		})
	}
}

// DeleteNoteHandler is owner-only; an edit grant does not extend to delete.
func DeleteNoteHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.GetUserIDFromContext(r.Context())
		noteID, err := noteIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusNotFound, "Note not found")
			return
		}

		level, _, err := access.Resolve(r.Context(), st, userID, noteID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Note not found")
			return
		}
		if err != nil {
			log.Println("Resolve access error:", err)
			writeError(w, http.StatusInternalServerError, "Failed to delete note")
			return
		}
		if level == access.None {
			writeError(w, http.StatusNotFound, "Note not found")
			return
		}
		if level != access.Owner {
			writeError(w, http.StatusForbidden, "Only the owner can delete a note")
			return
		}

		if err := st.DeleteNote(r.Context(), noteID); err != nil {
			log.Println("Delete note error:", err)
			writeError(w, http.StatusInternalServerError, "Failed to delete note")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted successfully"})
	}
}
