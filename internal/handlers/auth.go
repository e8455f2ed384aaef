package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/ahsanfayaz52/notesservice/internal/auth"
	"github.com/ahsanfayaz52/notesservice/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// Same work factor the original deployment used.
const bcryptCost = 12

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *registerRequest) validate() error {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if len(req.Username) < 3 || len(req.Username) > 50 {
		return errors.New("Username must be 3-50 characters")
	}
	if !emailPattern.MatchString(req.Email) {
		return errors.New("Valid email required")
	}
	if len(req.Password) < 6 {
		return errors.New("Password must be at least 6 characters")
	}
	return nil
}

func RegisterHandler(st *store.Store, jwtService *auth.JWTService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		hashedPass, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error creating user")
			return
		}

		user, err := st.CreateUser(r.Context(), req.Username, req.Email, string(hashedPass))
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusBadRequest, "User already exists with this email or username")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		token, err := jwtService.GenerateToken(user.ID, user.Email)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to generate token")
			return
		}

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"message": "User created successfully",
			"token":   token,
			"user":    user.Public(),
		})
	}
}

func LoginHandler(st *store.Store, jwtService *auth.JWTService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !emailPattern.MatchString(strings.TrimSpace(req.Email)) {
			writeError(w, http.StatusBadRequest, "Valid email required")
			return
		}
		if req.Password == "" {
			writeError(w, http.StatusBadRequest, "Password required")
			return
		}

		// Same message for unknown email and wrong password
		user, err := st.GetUserByEmail(r.Context(), strings.TrimSpace(req.Email))
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		token, err := jwtService.GenerateToken(user.ID, user.Email)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to generate token")
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Login successful",
			"token":   token,
			"user":    user.Public(),
		})
	}
}

func ProfileHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.GetUserIDFromContext(r.Context())

		user, err := st.GetUserByID(r.Context(), userID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"user": user.Public()})
	}
}
