package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ahsanfayaz52/notesservice/internal/auth"
	"github.com/ahsanfayaz52/notesservice/internal/config"
	"github.com/ahsanfayaz52/notesservice/internal/db"
	"github.com/ahsanfayaz52/notesservice/internal/handlers"
	"github.com/ahsanfayaz52/notesservice/internal/store"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	sqlDB := db.InitSQLite(dsn)
	t.Cleanup(func() { sqlDB.Close() })

	st := store.New(sqlDB)
	jwtService := auth.NewJWTService("test-secret")
	return handlers.NewRouter(st, jwtService, &config.Config{})
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response %q: %v", rr.Body.String(), err)
	}
	return payload
}

func registerUser(t *testing.T, h http.Handler, username string) string {
	t.Helper()
	rr := doRequest(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret1",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d body=%s", username, rr.Code, rr.Body.String())
	}
	token, _ := decodeBody(t, rr)["token"].(string)
	if token == "" {
		t.Fatalf("register %s: missing token", username)
	}
	return token
}

func createNote(t *testing.T, h http.Handler, token, title, content string) int {
	t.Helper()
	rr := doRequest(t, h, http.MethodPost, "/api/notes", token, map[string]string{
		"title":   title,
		"content": content,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create note: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	note := decodeBody(t, rr)["note"].(map[string]interface{})
	return int(note["id"].(float64))
}

func shareNote(t *testing.T, h http.Handler, token string, noteID int, usernames interface{}, permission string) *httptest.ResponseRecorder {
	t.Helper()
	body := map[string]interface{}{"usernames": usernames}
	if permission != "" {
		body["permission"] = permission
	}
	return doRequest(t, h, http.MethodPost, fmt.Sprintf("/api/notes/%d/share", noteID), token, body)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)
	rr := doRequest(t, h, http.MethodGet, "/api/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if decodeBody(t, rr)["status"] != "OK" {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	h := newTestServer(t)
	rr := doRequest(t, h, http.MethodGet, "/api/nope", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if decodeBody(t, rr)["error"] != "Route not found" {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestRegisterValidation(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"short username", map[string]string{"username": "ab", "email": "a@x.com", "password": "secret1"}},
		{"bad email", map[string]string{"username": "alice", "email": "not-an-email", "password": "secret1"}},
		{"short password", map[string]string{"username": "alice", "email": "a@x.com", "password": "12345"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doRequest(t, h, http.MethodPost, "/api/auth/register", "", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestRegisterDuplicateConflict(t *testing.T) {
	h := newTestServer(t)
	registerUser(t, h, "alice")

	rr := doRequest(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "different@example.com",
		"password": "secret1",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate username, got %d", rr.Code)
	}
}

func TestLoginFlow(t *testing.T) {
	h := newTestServer(t)
	registerUser(t, h, "alice")

	rr := doRequest(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "secret1",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodeBody(t, rr)
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected token in login response")
	}
	user := payload["user"].(map[string]interface{})
	if user["username"] != "alice" || user["email"] != "alice@example.com" {
		t.Fatalf("unexpected user payload: %v", user)
	}
	if _, leaked := user["password"]; leaked {
		t.Fatal("password must never appear in responses")
	}

	// the fresh token works against a protected route
	rr = doRequest(t, h, http.MethodGet, "/api/auth/profile", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("profile with login token: expected 200, got %d", rr.Code)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	h := newTestServer(t)
	registerUser(t, h, "alice")

	wrongPass := doRequest(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	})
	noUser := doRequest(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ghost@example.com", "password": "whatever",
	})

	if wrongPass.Code != http.StatusUnauthorized || noUser.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongPass.Code, noUser.Code)
	}
	if decodeBody(t, wrongPass)["error"] != decodeBody(t, noUser)["error"] {
		t.Fatal("login failure messages must not reveal whether the account exists")
	}
}

func TestMissingAndInvalidTokens(t *testing.T) {
	h := newTestServer(t)

	rr := doRequest(t, h, http.MethodGet, "/api/notes", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", rr.Code)
	}

	rr = doRequest(t, h, http.MethodGet, "/api/notes", "garbage-token", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("invalid token: expected 401, got %d", rr.Code)
	}
}

func TestCreateNoteDefaultsAndValidation(t *testing.T) {
	h := newTestServer(t)
	token := registerUser(t, h, "alice")

	rr := doRequest(t, h, http.MethodPost, "/api/notes", token, map[string]string{
		"title": "T", "content": "C",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	note := decodeBody(t, rr)["note"].(map[string]interface{})
	if note["color"] != "yellow" {
		t.Fatalf("expected default color yellow, got %v", note["color"])
	}

	rr = doRequest(t, h, http.MethodPost, "/api/notes", token, map[string]string{
		"title": "", "content": "C",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty title: expected 400, got %d", rr.Code)
	}

	rr = doRequest(t, h, http.MethodPost, "/api/notes", token, map[string]string{
		"title": "T", "content": "C", "color": "chartreuse",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad color: expected 400, got %d", rr.Code)
	}
}

func TestShareFlowEndToEnd(t *testing.T) {
	h := newTestServer(t)
	aliceToken := registerUser(t, h, "alice")
	bobToken := registerUser(t, h, "bob")

	noteID := createNote(t, h, aliceToken, "T", "C")

	// share read with bob
	rr := shareNote(t, h, aliceToken, noteID, "bob", "read")
	if rr.Code != http.StatusOK {
		t.Fatalf("share: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	successful := decodeBody(t, rr)["successful"].([]interface{})
	entry := successful[0].(map[string]interface{})
	if entry["username"] != "bob" || entry["action"] != "shared" {
		t.Fatalf("unexpected manifest entry: %v", entry)
	}

	// bob sees it in his shared list with the right permission
	rr = doRequest(t, h, http.MethodGet, "/api/notes/shared", bobToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("shared list: expected 200, got %d", rr.Code)
	}
	notes := decodeBody(t, rr)["notes"].([]interface{})
	if len(notes) != 1 {
		t.Fatalf("expected 1 shared note, got %d", len(notes))
	}
	sharedNote := notes[0].(map[string]interface{})
	if sharedNote["note_type"] != "shared" || sharedNote["shared_permission"] != "read" || sharedNote["owner_username"] != "alice" {
		t.Fatalf("unexpected shared note tags: %v", sharedNote)
	}

	// read grant does not allow writing
	rr = doRequest(t, h, http.MethodPut, fmt.Sprintf("/api/notes/%d", noteID), bobToken, map[string]string{
		"title": "hijacked", "content": "by bob",
	})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("read grantee PUT: expected 403, got %d", rr.Code)
	}

	// upgrade to edit: exactly one grant, action says updated
	rr = shareNote(t, h, aliceToken, noteID, "bob", "edit")
	if rr.Code != http.StatusOK {
		t.Fatalf("re-share: expected 200, got %d", rr.Code)
	}
	successful = decodeBody(t, rr)["successful"].([]interface{})
	if successful[0].(map[string]interface{})["action"] != "updated" {
		t.Fatalf("expected action updated, got %v", successful[0])
	}

	rr = doRequest(t, h, http.MethodGet, fmt.Sprintf("/api/notes/%d/shares", noteID), aliceToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list shares: expected 200, got %d", rr.Code)
	}
	shares := decodeBody(t, rr)["shares"].([]interface{})
	if len(shares) != 1 {
		t.Fatalf("expected exactly 1 grant after upsert, got %d", len(shares))
	}
	if shares[0].(map[string]interface{})["permission"] != "edit" {
		t.Fatalf("expected latest permission edit, got %v", shares[0])
	}

	// edit grantee may update, and ownership stays with alice
	rr = doRequest(t, h, http.MethodPut, fmt.Sprintf("/api/notes/%d", noteID), bobToken, map[string]string{
		"title": "T2", "content": "C2",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("edit grantee PUT: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, h, http.MethodGet, fmt.Sprintf("/api/notes/%d", noteID), aliceToken, nil)
	note := decodeBody(t, rr)["note"].(map[string]interface{})
	if note["title"] != "T2" {
		t.Fatalf("expected updated title, got %v", note["title"])
	}
	if note["note_type"] != "owner" {
		t.Fatalf("ownership moved after grantee edit: %v", note)
	}

	// edit grant does not extend to delete or share management
	rr = doRequest(t, h, http.MethodDelete, fmt.Sprintf("/api/notes/%d", noteID), bobToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("grantee DELETE: expected 403, got %d", rr.Code)
	}
	rr = shareNote(t, h, bobToken, noteID, "alice", "read")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("grantee share: expected 403, got %d", rr.Code)
	}
	rr = doRequest(t, h, http.MethodGet, fmt.Sprintf("/api/notes/%d/shares", noteID), bobToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("grantee list shares: expected 403, got %d", rr.Code)
	}
}

func TestStrangerGetsNotFoundEverywhere(t *testing.T) {
	h := newTestServer(t)
	aliceToken := registerUser(t, h, "alice")
	carolToken := registerUser(t, h, "carol")

	noteID := createNote(t, h, aliceToken, "T", "C")

	paths := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, fmt.Sprintf("/api/notes/%d", noteID), nil},
		{http.MethodPut, fmt.Sprintf("/api/notes/%d", noteID), map[string]string{"title": "x", "content": "y"}},
		{http.MethodDelete, fmt.Sprintf("/api/notes/%d", noteID), nil},
		{http.MethodPost, fmt.Sprintf("/api/notes/%d/share", noteID), map[string]interface{}{"usernames": "alice"}},
		{http.MethodGet, fmt.Sprintf("/api/notes/%d/shares", noteID), nil},
	}
	for _, p := range paths {
		rr := doRequest(t, h, p.method, p.path, carolToken, p.body)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("%s %s: expected 404 for non-participant, got %d", p.method, p.path, rr.Code)
		}
	}

	// identical response for a note that truly does not exist
	rr := doRequest(t, h, http.MethodGet, "/api/notes/99999", carolToken, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing note: expected 404, got %d", rr.Code)
	}
}

func TestShareManifestPartialSuccess(t *testing.T) {
	h := newTestServer(t)
	aliceToken := registerUser(t, h, "alice")
	registerUser(t, h, "bob")

	noteID := createNote(t, h, aliceToken, "T", "C")

	rr := shareNote(t, h, aliceToken, noteID, []string{"bob", "ghost", "alice"}, "read")
	if rr.Code != http.StatusOK {
		t.Fatalf("partial success must report 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodeBody(t, rr)

	successful := payload["successful"].([]interface{})
	if len(successful) != 1 || successful[0].(map[string]interface{})["username"] != "bob" {
		t.Fatalf("unexpected successful list: %v", successful)
	}

	failed := payload["failed"].([]interface{})
	if len(failed) != 2 {
		t.Fatalf("expected 2 failures, got %v", failed)
	}
	reasons := map[string]string{}
	for _, f := range failed {
		entry := f.(map[string]interface{})
		reasons[entry["username"].(string)] = entry["reason"].(string)
	}
	if reasons["ghost"] != "User not found" {
		t.Fatalf("unexpected reason for ghost: %q", reasons["ghost"])
	}
	if reasons["alice"] == "" {
		t.Fatal("expected a self-share failure for alice")
	}
}

func TestShareAllEntriesFailing(t *testing.T) {
	h := newTestServer(t)
	aliceToken := registerUser(t, h, "alice")
	noteID := createNote(t, h, aliceToken, "T", "C")

	rr := shareNote(t, h, aliceToken, noteID, []string{"ghost", "alice"}, "read")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("all-failed share: expected 400, got %d", rr.Code)
	}
}

func TestShareValidation(t *testing.T) {
	h := newTestServer(t)
	aliceToken := registerUser(t, h, "alice")
	registerUser(t, h, "bob")
	noteID := createNote(t, h, aliceToken, "T", "C")

	rr := shareNote(t, h, aliceToken, noteID, "bob", "admin")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad permission: expected 400, got %d", rr.Code)
	}

	rr = shareNote(t, h, aliceToken, noteID, []string{}, "read")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty usernames: expected 400, got %d", rr.Code)
	}

	// omitted permission defaults to read
	rr = shareNote(t, h, aliceToken, noteID, "bob", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("default permission: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doRequest(t, h, http.MethodGet, fmt.Sprintf("/api/notes/%d/shares", noteID), aliceToken, nil)
	shares := decodeBody(t, rr)["shares"].([]interface{})
	if shares[0].(map[string]interface{})["permission"] != "read" {
		t.Fatalf("expected default permission read, got %v", shares[0])
	}
}

func TestRevokeShare(t *testing.T) {
	h := newTestServer(t)
	aliceToken := registerUser(t, h, "alice")
	bobToken := registerUser(t, h, "bob")
	noteID := createNote(t, h, aliceToken, "T", "C")

	shareNote(t, h, aliceToken, noteID, "bob", "read")

	rr := doRequest(t, h, http.MethodDelete, fmt.Sprintf("/api/notes/%d/shares/bob", noteID), aliceToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("revoke: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	// bob no longer sees the note at all
	rr = doRequest(t, h, http.MethodGet, fmt.Sprintf("/api/notes/%d", noteID), bobToken, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("revoked grantee GET: expected 404, got %d", rr.Code)
	}

	// revoking twice, or an unknown user, is a 404
	rr = doRequest(t, h, http.MethodDelete, fmt.Sprintf("/api/notes/%d/shares/bob", noteID), aliceToken, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("double revoke: expected 404, got %d", rr.Code)
	}
	rr = doRequest(t, h, http.MethodDelete, fmt.Sprintf("/api/notes/%d/shares/ghost", noteID), aliceToken, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown user revoke: expected 404, got %d", rr.Code)
	}
}

func TestGetSharedNoteDirectly(t *testing.T) {
	h := newTestServer(t)
	aliceToken := registerUser(t, h, "alice")
	bobToken := registerUser(t, h, "bob")
	noteID := createNote(t, h, aliceToken, "T", "C")

	shareNote(t, h, aliceToken, noteID, "bob", "read")

	rr := doRequest(t, h, http.MethodGet, fmt.Sprintf("/api/notes/%d", noteID), bobToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("grantee single fetch: expected 200, got %d", rr.Code)
	}
	note := decodeBody(t, rr)["note"].(map[string]interface{})
	if note["note_type"] != "shared" || note["shared_permission"] != "read" || note["owner_username"] != "alice" {
		t.Fatalf("unexpected note tags: %v", note)
	}
}

func TestListNotesUnionSearchAndSort(t *testing.T) {
	h := newTestServer(t)
	aliceToken := registerUser(t, h, "alice")
	bobToken := registerUser(t, h, "bob")

	createNote(t, h, aliceToken, "Apples", "shopping")
	createNote(t, h, aliceToken, "Cars", "maintenance log")
	bobNote := createNote(t, h, bobToken, "Apple pie", "recipe")
	shareNote(t, h, bobToken, bobNote, "alice", "read")

	// no search: everything visible to alice
	rr := doRequest(t, h, http.MethodGet, "/api/notes", aliceToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rr.Code)
	}
	notes := decodeBody(t, rr)["notes"].([]interface{})
	if len(notes) != 3 {
		t.Fatalf("expected 3 visible notes, got %d", len(notes))
	}

	// search filters both subsets, sort applies over the union
	rr = doRequest(t, h, http.MethodGet, "/api/notes?search=apple&sort=title&order=asc", aliceToken, nil)
	notes = decodeBody(t, rr)["notes"].([]interface{})
	if len(notes) != 2 {
		t.Fatalf("expected 2 matches, got %d: %s", len(notes), rr.Body.String())
	}
	first := notes[0].(map[string]interface{})
	second := notes[1].(map[string]interface{})
	if first["title"] != "Apple pie" || second["title"] != "Apples" {
		t.Fatalf("expected title-sorted union, got %v then %v", first["title"], second["title"])
	}
	if first["note_type"] != "shared" || second["note_type"] != "owner" {
		t.Fatalf("expected interleaved tags, got %v/%v", first["note_type"], second["note_type"])
	}
}

func TestDeleteNoteByOwner(t *testing.T) {
	h := newTestServer(t)
	aliceToken := registerUser(t, h, "alice")
	bobToken := registerUser(t, h, "bob")
	noteID := createNote(t, h, aliceToken, "T", "C")
	shareNote(t, h, aliceToken, noteID, "bob", "edit")

	rr := doRequest(t, h, http.MethodDelete, fmt.Sprintf("/api/notes/%d", noteID), aliceToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("owner delete: expected 200, got %d", rr.Code)
	}

	// note and grant are both gone
	rr = doRequest(t, h, http.MethodGet, fmt.Sprintf("/api/notes/%d", noteID), aliceToken, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("deleted note fetch: expected 404, got %d", rr.Code)
	}
	rr = doRequest(t, h, http.MethodGet, "/api/notes/shared", bobToken, nil)
	notes := decodeBody(t, rr)["notes"].([]interface{})
	if len(notes) != 0 {
		t.Fatalf("expected empty shared list after cascade, got %d", len(notes))
	}
}
