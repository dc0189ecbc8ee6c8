package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"storefront/internal/models"
)

// SessionCookieName is the cookie carrying the session id.
const SessionCookieName = "session_id"

// SessionAuth authenticates requests with a server-side session referenced by
// an HttpOnly cookie.
type SessionAuth struct {
	store *session.Store
}

// NewSessionAuth creates a SessionAuth backed by Fiber's in-memory session storage.
func NewSessionAuth(ttl time.Duration, secureCookie bool) *SessionAuth {
	return &SessionAuth{
		store: session.New(session.Config{
			Expiration:     ttl,
			KeyLookup:      "cookie:" + SessionCookieName,
			CookiePath:     "/",
			CookieSecure:   secureCookie,
			CookieHTTPOnly: true,
			CookieSameSite: fiber.CookieSameSiteLaxMode,
			KeyGenerator:   uuid.NewString,
		}),
	}
}

// Required rejects requests without a logged-in session.
func (a *SessionAuth) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := a.store.Get(c)
		if err != nil {
			return err
		}
		id, ok := sess.Get(localUserID).(uint)
		if !ok || id == 0 {
			return unauthorized(c, "Authentication required")
		}
		username, _ := sess.Get(localUsername).(string)
		setUser(c, id, username)
		return c.Next()
	}
}

// Optional identifies the caller when a session exists.
func (a *SessionAuth) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := a.store.Get(c)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to load session")
			return c.Next()
		}
		if id, ok := sess.Get(localUserID).(uint); ok && id != 0 {
			username, _ := sess.Get(localUsername).(string)
			setUser(c, id, username)
		}
		return c.Next()
	}
}

// Login starts a fresh session for user. The id is regenerated so a session
// id planted before login cannot be reused.
func (a *SessionAuth) Login(c *fiber.Ctx, user *models.User) (fiber.Map, error) {
	sess, err := a.store.Get(c)
	if err != nil {
		return nil, err
	}
	if err := sess.Regenerate(); err != nil {
		return nil, err
	}
	sess.Set(localUserID, user.ID)
	sess.Set(localUsername, user.Username)
	if err := sess.Save(); err != nil {
		return nil, err
	}
	return fiber.Map{}, nil
}

// Logout destroys the session and expires the cookie.
func (a *SessionAuth) Logout(c *fiber.Ctx) error {
	sess, err := a.store.Get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}
