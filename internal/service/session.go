package service

import (
	"context"
	"net/http"

	"moviereview/internal/biz"
	"moviereview/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/gorilla/sessions"
)

const defaultSessionName = "moviereview_session"

const (
	keyUserID   = "user_id"
	keyUsername = "username"
	keyFlashes  = "flashes"
	keyErrors   = "errors"
	keyReturnTo = "return_to"
)

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying the authenticated caller.
func WithIdentity(ctx context.Context, who *biz.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, who)
}

// IdentityFrom returns the caller attached by the session filter, nil for anonymous requests.
func IdentityFrom(ctx context.Context) *biz.Identity {
	who, _ := ctx.Value(identityKey{}).(*biz.Identity)
	return who
}

// SessionManager is the only code that reads or writes session values.
type SessionManager struct {
	store sessions.Store
	name  string
	log   *log.Helper
}

func NewSessionManager(store sessions.Store, c *conf.Session, logger log.Logger) *SessionManager {
	name := c.Name
	if name == "" {
		name = defaultSessionName
	}
	return &SessionManager{
		store: store,
		name:  name,
		log:   log.NewHelper(logger),
	}
}

func (m *SessionManager) session(r *http.Request) *sessions.Session {
	s, err := m.store.Get(r, m.name)
	if err != nil {
		// Get still hands back a fresh session
		m.log.Warnf("discarding unreadable session: %v", err)
	}
	return s
}

// Load is an HTTP filter resolving the session into a request identity.
func (m *SessionManager) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.session(r)
		id, _ := s.Values[keyUserID].(string)
		if id != "" {
			username, _ := s.Values[keyUsername].(string)
			r = r.WithContext(WithIdentity(r.Context(), &biz.Identity{ID: id, Username: username}))
		}
		next.ServeHTTP(w, r)
	})
}

// Login stores the user in the session and returns where the user was headed before logging in.
func (m *SessionManager) Login(w http.ResponseWriter, r *http.Request, user *biz.User) (string, error) {
	s := m.session(r)
	returnTo, _ := s.Values[keyReturnTo].(string)
	delete(s.Values, keyReturnTo)
	s.Values[keyUserID] = user.ID
	s.Values[keyUsername] = user.Username
	// never promote an anonymous session id
	s.ID = ""
	return returnTo, s.Save(r, w)
}

// Logout destroys the session.
func (m *SessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	s := m.session(r)
	s.Values = map[interface{}]interface{}{}
	s.Options.MaxAge = -1
	return s.Save(r, w)
}

// SetUsername keeps the session in step with a renamed user.
func (m *SessionManager) SetUsername(w http.ResponseWriter, r *http.Request, username string) error {
	s := m.session(r)
	s.Values[keyUsername] = username
	return s.Save(r, w)
}

// SetReturnTo remembers the page an anonymous visitor was sent away from.
func (m *SessionManager) SetReturnTo(w http.ResponseWriter, r *http.Request, url string) error {
	s := m.session(r)
	s.Values[keyReturnTo] = url
	return s.Save(r, w)
}

// Flash queues a success message for the next page.
func (m *SessionManager) Flash(w http.ResponseWriter, r *http.Request, msg string) error {
	return m.push(w, r, keyFlashes, msg)
}

// FlashErrors queues error messages for the next page.
func (m *SessionManager) FlashErrors(w http.ResponseWriter, r *http.Request, msgs ...string) error {
	return m.push(w, r, keyErrors, msgs...)
}

func (m *SessionManager) push(w http.ResponseWriter, r *http.Request, key string, msgs ...string) error {
	s := m.session(r)
	queued, _ := s.Values[key].([]string)
	s.Values[key] = append(queued, msgs...)
	return s.Save(r, w)
}

// TakeFlashes returns and clears the queued messages.
func (m *SessionManager) TakeFlashes(w http.ResponseWriter, r *http.Request) (flashes, errs []string) {
	s := m.session(r)
	flashes, _ = s.Values[keyFlashes].([]string)
	errs, _ = s.Values[keyErrors].([]string)
	if len(flashes) == 0 && len(errs) == 0 {
		return nil, nil
	}
	delete(s.Values, keyFlashes)
	delete(s.Values, keyErrors)
	if err := s.Save(r, w); err != nil {
		m.log.Errorf("failed to clear flashes: %v", err)
	}
	return flashes, errs
}
