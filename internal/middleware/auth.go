package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"modelhaus/api/internal/repository"
	"modelhaus/api/internal/security"
)

// SessionCookieName carries the signed session token between requests.
const SessionCookieName = "modelhaus_session"

const (
	contextUsernameKey  = "auth.username"
	contextSessionIDKey = "auth.session_id"
)

// RequireSession rejects requests without a valid session cookie. The
// cookie only references a server-side session row; the row must still
// exist and be unexpired for the request to proceed.
func RequireSession(sessions *repository.SessionRepository, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, sessionID, ok := resolveSession(c, sessions, secret)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "請先登入",
			})
			return
		}

		c.Set(contextUsernameKey, username)
		c.Set(contextSessionIDKey, sessionID)
		c.Next()
	}
}

// OptionalSession resolves the session when the cookie is present and
// valid, and lets the request through either way.
func OptionalSession(sessions *repository.SessionRepository, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if username, sessionID, ok := resolveSession(c, sessions, secret); ok {
			c.Set(contextUsernameKey, username)
			c.Set(contextSessionIDKey, sessionID)
		}
		c.Next()
	}
}

func resolveSession(c *gin.Context, sessions *repository.SessionRepository, secret string) (username, sessionID string, ok bool) {
	token, err := c.Cookie(SessionCookieName)
	if err != nil || token == "" {
		return "", "", false
	}

	claims, err := security.ParseSessionToken(token, secret)
	if err != nil {
		return "", "", false
	}

	session, err := sessions.GetByID(c.Request.Context(), claims.SessionID)
	if err != nil {
		if !errors.Is(err, repository.ErrSessionNotFound) {
			_ = c.Error(err)
		}
		return "", "", false
	}
	if time.Now().After(session.ExpiresAt) {
		return "", "", false
	}

	// Touch failures only cost idle-time accounting.
	_ = sessions.Touch(c.Request.Context(), session.ID, c.ClientIP(), c.Request.UserAgent())

	return session.Username, session.ID, true
}

// SessionUsername returns the authenticated username set by
// RequireSession or OptionalSession.
func SessionUsername(c *gin.Context) (string, bool) {
	v, ok := c.Get(contextUsernameKey)
	if !ok {
		return "", false
	}
	username, ok := v.(string)
	return username, ok && username != ""
}

// SessionID returns the authenticated session id, when present.
func SessionID(c *gin.Context) (string, bool) {
	v, ok := c.Get(contextSessionIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
