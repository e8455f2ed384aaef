package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/ahsanfayaz52/notesservice/internal/access"
	"github.com/ahsanfayaz52/notesservice/internal/auth"
	"github.com/ahsanfayaz52/notesservice/internal/models"
	"github.com/ahsanfayaz52/notesservice/internal/store"
	"github.com/gorilla/mux"
)

// usernameList accepts both a single username string and an array of them,
// matching what the frontend sends.
type usernameList []string

func (u *usernameList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*u = usernameList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("usernames must be a string or an array of strings")
	}
	*u = usernameList(many)
	return nil
}

type shareRequest struct {
	Usernames  usernameList `json:"usernames"`
	Permission string       `json:"permission"`
}

type shareSuccess struct {
	Username string `json:"username"`
	Action   string `json:"action"`
}

type shareFailure struct {
	Username string `json:"username"`
	Reason   string `json:"reason"`
}

// resolveOwnedNote loads the note and enforces strict ownership for share
// management endpoints. Non-participants get 404, participants 403.
func resolveOwnedNote(w http.ResponseWriter, r *http.Request, st *store.Store) (int, bool) {
	userID := auth.GetUserIDFromContext(r.Context())
	noteID, err := noteIDFromRequest(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "Note not found")
		return 0, false
	}

	level, _, err := access.Resolve(r.Context(), st, userID, noteID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Note not found")
		return 0, false
	}
	if err != nil {
		log.Println("Resolve access error:", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return 0, false
	}
	if level == access.None {
		writeError(w, http.StatusNotFound, "Note not found")
		return 0, false
	}
	if !access.CanShare(level) {
		writeError(w, http.StatusForbidden, "Only the owner can manage sharing")
		return 0, false
	}
	return noteID, true
}

// ShareNoteHandler grants read or edit access on a note to one or more users.
// Each username is processed independently; the call only fails outright when
// every entry failed.
func ShareNoteHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := auth.GetUserIDFromContext(r.Context())

		noteID, ok := resolveOwnedNote(w, r, st)
		if !ok {
			return
		}

		var req shareRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Permission == "" {
			req.Permission = models.PermissionRead
		}
		if !models.ValidPermission(req.Permission) {
			writeError(w, http.StatusBadRequest, "Permission must be 'read' or 'edit'")
			return
		}
		if len(req.Usernames) == 0 {
			writeError(w, http.StatusBadRequest, "At least one username is required")
			return
		}

		successful := []shareSuccess{}
		failed := []shareFailure{}
		for _, username := range req.Usernames {
			username = strings.TrimSpace(username)

			grantee, err := st.GetUserByUsername(r.Context(), username)
			if errors.Is(err, store.ErrNotFound) {
				failed = append(failed, shareFailure{Username: username, Reason: "User not found"})
				continue
			}
			if err != nil {
				log.Println("Lookup grantee error:", err)
				failed = append(failed, shareFailure{Username: username, Reason: "Internal error"})
				continue
			}
			if grantee.ID == ownerID {
				failed = append(failed, shareFailure{Username: username, Reason: "Cannot share a note with yourself"})
				continue
			}

			action, err := st.UpsertShare(r.Context(), noteID, ownerID, grantee.ID, req.Permission)
			if err != nil {
				log.Println("Upsert share error:", err)
				failed = append(failed, shareFailure{Username: username, Reason: "Internal error"})
				continue
			}
			successful = append(successful, shareSuccess{Username: username, Action: action})
		}

		if len(successful) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":  "Failed to share note with any of the given users",
				"failed": failed,
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":    "Note sharing processed",
			"successful": successful,
			"failed":     failed,
		})
	}
}

// SharedNotesHandler lists the notes other users have shared with the caller.
func SharedNotesHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.GetUserIDFromContext(r.Context())

		notes, err := st.ListSharedNotes(r.Context(), userID, "")
		if err != nil {
			log.Println("List shared notes error:", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch shared notes")
			return
		}
		if notes == nil {
			notes = []models.NoteView{}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"notes": notes})
	}
}

// ListSharesHandler enumerates who a note is shared with. Owner only.
func ListSharesHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noteID, ok := resolveOwnedNote(w, r, st)
		if !ok {
			return
		}

		shares, err := st.ListShares(r.Context(), noteID)
		if err != nil {
			log.Println("List shares error:", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch shares")
			return
		}
		if shares == nil {
			shares = []models.ShareInfo{}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"shares": shares})
	}
}

// RevokeShareHandler removes a single grantee from a note. Owner only.
func RevokeShareHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noteID, ok := resolveOwnedNote(w, r, st)
		if !ok {
			return
		}

		username := mux.Vars(r)["username"]
		grantee, err := st.GetUserByUsername(r.Context(), username)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		if err != nil {
			log.Println("Lookup grantee error:", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		err = st.DeleteShare(r.Context(), noteID, grantee.ID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Share not found")
			return
		}
		if err != nil {
			log.Println("Delete share error:", err)
			writeError(w, http.StatusInternalServerError, "Failed to revoke share")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "Share revoked successfully"})
	}
}
