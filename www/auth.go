package www

import (
	"log"
	"net/http"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
)

const sessionName = "podfleet-session"

func newSessionStore(secret string) *sessions.CookieStore {
	if secret == "" {
		secret = "podfleet-default-secret-change-me"
	}
	s := sessions.NewCookieStore([]byte(secret))
	s.Options.HttpOnly = true
	s.Options.Secure = false // served on plain HTTP inside the warehouse network
	s.Options.SameSite = http.SameSiteLaxMode
	return s
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (h *Handlers) isAuthenticated(r *http.Request) bool {
	session, err := h.sessions.Get(r, sessionName)
	if err != nil {
		return false
	}
	auth, ok := session.Values["authenticated"].(bool)
	return ok && auth
}

func (h *Handlers) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.isAuthenticated(r) {
			h.jsonError(w, "login required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handlers) getUsername(r *http.Request) string {
	session, err := h.sessions.Get(r, sessionName)
	if err != nil {
		return ""
	}
	username, _ := session.Values["username"].(string)
	return username
}

// ensureDefaultAdmin creates admin/admin on an empty user table.
func (h *Handlers) ensureDefaultAdmin() {
	db := h.engine.DB()
	if n, err := db.CountAdminUsers(); err != nil || n > 0 {
		return
	}
	hash, err := hashPassword("admin")
	if err != nil {
		return
	}
	if err := db.CreateAdminUser("admin", hash); err != nil {
		log.Printf("auth: create default admin: %v", err)
		return
	}
	log.Printf("auth: created default admin user, change its password")
}

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	db := h.engine.DB()
	if db == nil {
		h.jsonError(w, "no user database configured", http.StatusServiceUnavailable)
		return
	}

	username := r.FormValue("username")
	user, err := db.GetAdminUser(username)
	if err != nil || !checkPassword(user.PasswordHash, r.FormValue("password")) {
		h.jsonError(w, "invalid username or password", http.StatusUnauthorized)
		return
	}

	session, _ := h.sessions.Get(r, sessionName)
	session.Values["authenticated"] = true
	session.Values["username"] = username
	if err := session.Save(r, w); err != nil {
		log.Printf("auth: session save error: %v", err)
	}
	db.AppendAudit("admin", username, "login", "", username)
	h.jsonOK(w, map[string]string{"status": "ok", "username": username})
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessions.Get(r, sessionName)
	session.Values["authenticated"] = false
	session.Values["username"] = ""
	session.Save(r, w)
	h.jsonOK(w, map[string]string{"status": "ok"})
}

// handleChangePassword sets a new password for the logged-in user after
// checking the current one.
func (h *Handlers) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	username := h.getUsername(r)
	next := r.FormValue("new_password")
	if len(next) < 8 {
		h.jsonError(w, "new password must be at least 8 characters", http.StatusBadRequest)
		return
	}
	db := h.engine.DB()
	if db == nil {
		h.jsonError(w, "no user database configured", http.StatusServiceUnavailable)
		return
	}
	user, err := db.GetAdminUser(username)
	if err != nil || !checkPassword(user.PasswordHash, r.FormValue("password")) {
		h.jsonError(w, "current password is wrong", http.StatusUnauthorized)
		return
	}
	hash, err := hashPassword(next)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := db.SetAdminPassword(username, hash); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	db.AppendAudit("admin", username, "password changed", "", username)
	h.jsonOK(w, map[string]string{"status": "ok"})
}
