// Package auth binds logged-in identity to requests through an encrypted
// cookie session and carries the loaded user in the request context. There
// is no process-wide current user.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/gob"
	"net/http"
	"net/url"

	"github.com/gorilla/sessions"

	"journal/models"
)

const sessionName = "journal-session"

// Flash is a one-time notification shown on the next rendered page.
type Flash struct {
	Category string // "success" or "error"
	Message  string
}

func init() {
	gob.Register(Flash{})
}

type Manager struct {
	store *sessions.CookieStore
}

// NewManager builds the cookie session store. Two 32-byte keys are derived
// from the configured session key: one for signing (HMAC), one for content
// encryption (AES).
func NewManager(sessionKey string, secure bool) *Manager {
	authKey := sha256.Sum256([]byte(sessionKey + "auth"))
	encKey := sha256.Sum256([]byte(sessionKey + "encryption"))

	store := sessions.NewCookieStore(authKey[:], encKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{store: store}
}

// UserID returns the signed-in user id from the session, or 0 when the
// request carries no valid session.
func (m *Manager) UserID(r *http.Request) int64 {
	session, _ := m.store.Get(r, sessionName)
	if id, ok := session.Values["userID"].(int64); ok {
		return id
	}
	return 0
}

func (m *Manager) SignIn(w http.ResponseWriter, r *http.Request, userID int64) error {
	session, _ := m.store.Get(r, sessionName)
	session.Values["userID"] = userID
	return session.Save(r, w)
}

// SignOut drops the identity binding. The session itself survives so a
// flash queued in the same request still reaches the next page.
func (m *Manager) SignOut(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, sessionName)
	delete(session.Values, "userID")
	return session.Save(r, w)
}

// AddFlash queues a one-time notification for the next rendered page.
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, category, message string) {
	session, _ := m.store.Get(r, sessionName)
	session.AddFlash(Flash{Category: category, Message: message})
	session.Save(r, w)
}

// Flashes drains and returns queued notifications.
func (m *Manager) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	session, _ := m.store.Get(r, sessionName)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	session.Save(r, w)

	flashes := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes
}

type userKey struct{}

// WithUser returns a child context carrying the authenticated user.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// CurrentUser returns the authenticated user attached to ctx, if any.
func CurrentUser(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey{}).(models.User)
	return user, ok
}

// UserLoader is the slice of the store the session middleware needs.
type UserLoader interface {
	UserByID(ctx context.Context, id int64) (models.User, error)
}

// LoadUser resolves the session's user id to a full user and attaches it to
// the request context. A stale session pointing at a missing user is
// treated as anonymous.
func (m *Manager) LoadUser(users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := m.UserID(r); id != 0 {
				if user, err := users.UserByID(r.Context(), id); err == nil {
					r = r.WithContext(WithUser(r.Context(), user))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireLogin gates a route behind authentication. Anonymous requests are
// redirected to the login page with the original destination preserved in
// the next parameter, so login can resume where the user was headed.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r.Context()); !ok {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
