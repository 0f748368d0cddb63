package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"retail-dashboard/internal/pipeline"
)

const DefaultCookieName = "dashboard_session"

// Manager binds a Store to the session cookie.
type Manager struct {
	store      Store
	cookieName string
	ttl        time.Duration
	defaults   func() pipeline.ViewState
	logger     *slog.Logger
}

func NewManager(store Store, cookieName string, ttl time.Duration, defaults func() pipeline.ViewState, logger *slog.Logger) *Manager {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Manager{
		store:      store,
		cookieName: cookieName,
		ttl:        ttl,
		defaults:   defaults,
		logger:     logger,
	}
}

// Load returns the caller's session id and state. Requests without a valid
// session get a fresh id, a cookie and the default state.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) (string, pipeline.ViewState) {
	if c, err := r.Cookie(m.cookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			state, ok, err := m.store.Get(r.Context(), id.String())
			if err != nil {
				m.logger.Warn("session lookup failed", "error", err)
			}
			if ok {
				return id.String(), state
			}
			return id.String(), m.defaults()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id, m.defaults()
}

func (m *Manager) Save(ctx context.Context, id string, state pipeline.ViewState) error {
	return m.store.Save(ctx, id, state)
}

func (m *Manager) Store() Store {
	return m.store
}
