package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionHeader    = "X-Session-ID"
	sessionKey       = "session_id"
	sessionCookieTTL = 30 * 24 * time.Hour
	maxSessionLength = 64
)

// SessionConfig controls the anonymous session cookie
type SessionConfig struct {
	CookieName string
	Secure     bool
	Now        func() time.Time
}

// SessionMiddleware resolves the caller's opaque session id from the
// X-Session-ID header, then the session cookie. A new id is minted and set
// as a cookie when neither is present.
func SessionMiddleware(cfg SessionConfig) gin.HandlerFunc {
	if cfg.CookieName == "" {
		cfg.CookieName = "elearning_user_session"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return func(c *gin.Context) {
		sessionID := strings.TrimSpace(c.GetHeader(SessionHeader))
		if sessionID == "" {
			if cookie, err := c.Cookie(cfg.CookieName); err == nil {
				sessionID = strings.TrimSpace(cookie)
			}
		}
		if len(sessionID) > maxSessionLength {
			sessionID = ""
		}

		if sessionID == "" {
			sessionID = newSessionID(cfg.Now())
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cfg.CookieName, sessionID, int(sessionCookieTTL.Seconds()), "/", "", cfg.Secure, true)
		}

		c.Set(sessionKey, sessionID)
		c.Next()
	}
}

// SessionID returns the session resolved by SessionMiddleware, or ""
func SessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

func newSessionID(now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("user_%s_%d", random[:16], now.Unix())
}
