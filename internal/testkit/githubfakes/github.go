package githubfakes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Email mirrors one entry of the user/emails response.
type Email struct {
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
	Primary  bool   `json:"primary"`
}

type User struct {
	Login  string
	Emails []Email
}

// GitHub is a configurable fake of the GitHub OAuth endpoints and the REST
// resources the gatekeeper consumes.
type GitHub struct {
	Server *httptest.Server

	AdminToken string
	Org        string

	// OrgMemberStatus and InviteStatus, when non-zero, replace the normal
	// response status of the membership check and the invite.
	OrgMemberStatus int
	InviteStatus    int

	mu      sync.Mutex
	codes   map[string]string
	users   map[string]User
	members map[string]bool
	invites []string
	calls   []string
}

func New(t testing.TB) *GitHub {
	t.Helper()

	f := &GitHub{
		AdminToken: "admin-token",
		Org:        "jazzband",
		codes:      map[string]string{},
		users:      map[string]User{},
		members:    map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login/oauth/access_token", f.handleAccessToken)
	mux.HandleFunc("GET /api/user", f.handleUser)
	mux.HandleFunc("GET /api/user/emails", f.handleEmails)
	mux.HandleFunc("GET /api/orgs/{org}/members/{login}", f.handleOrgMember)
	mux.HandleFunc("PUT /api/teams/{team}/memberships/{login}", f.handleTeamMembership)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)

	return f
}

func (f *GitHub) APIURL() string   { return f.Server.URL + "/api/" }
func (f *GitHub) AuthURL() string  { return f.Server.URL + "/login/oauth/authorize" }
func (f *GitHub) TokenURL() string { return f.Server.URL + "/login/oauth/access_token" }

// AddUser registers a user reachable with token, and a code that exchanges to it.
func (f *GitHub) AddUser(code, token string, user User) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if code != "" {
		f.codes[code] = token
	}
	f.users[token] = user
}

func (f *GitHub) AddMember(login string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[login] = true
}

// Invites returns the team membership paths that were PUT successfully.
func (f *GitHub) Invites() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.invites...)
}

// Calls returns every request seen as "METHOD path".
func (f *GitHub) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *GitHub) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
}

func (f *GitHub) bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func (f *GitHub) handleAccessToken(w http.ResponseWriter, r *http.Request) {
	f.record(r)

	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	f.mu.Lock()
	token, ok := f.codes[r.PostForm.Get("code")]
	f.mu.Unlock()

	// GitHub answers a bad code with 200 and an error body.
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{
			"error":             "bad_verification_code",
			"error_description": "The code passed is incorrect or expired.",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
		"scope":        "read:org,user:email",
	})
}

func (f *GitHub) lookupUser(r *http.Request) (User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[f.bearer(r)]
	return u, ok
}

func (f *GitHub) handleUser(w http.ResponseWriter, r *http.Request) {
	f.record(r)

	u, ok := f.lookupUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		return
	}

	body := map[string]any{"id": 1}
	if u.Login != "" {
		body["login"] = u.Login
	}
	writeJSON(w, http.StatusOK, body)
}

func (f *GitHub) handleEmails(w http.ResponseWriter, r *http.Request) {
	f.record(r)

	u, ok := f.lookupUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		return
	}

	emails := u.Emails
	if emails == nil {
		emails = []Email{}
	}
	writeJSON(w, http.StatusOK, emails)
}

func (f *GitHub) handleOrgMember(w http.ResponseWriter, r *http.Request) {
	f.record(r)

	if f.bearer(r) != f.AdminToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		return
	}

	if f.OrgMemberStatus != 0 {
		writeJSON(w, f.OrgMemberStatus, map[string]string{"message": "forced"})
		return
	}

	f.mu.Lock()
	member := r.PathValue("org") == f.Org && f.members[r.PathValue("login")]
	f.mu.Unlock()

	if !member {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (f *GitHub) handleTeamMembership(w http.ResponseWriter, r *http.Request) {
	f.record(r)

	if f.bearer(r) != f.AdminToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		return
	}

	if f.InviteStatus != 0 {
		writeJSON(w, f.InviteStatus, map[string]string{"message": "forced"})
		return
	}

	f.mu.Lock()
	f.invites = append(f.invites, r.URL.Path)
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"url":   fmt.Sprintf("%s%s", f.Server.URL, r.URL.Path),
		"role":  "member",
		"state": "pending",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
