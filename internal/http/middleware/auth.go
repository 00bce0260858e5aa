package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/XadielF/hipotrack/common/logger"
	"github.com/XadielF/hipotrack/internal/model"
	"github.com/XadielF/hipotrack/internal/service"
)

const (
	SessionCookieName = "hipotrack_session"
	SessionIDHeader   = "X-Session-ID"

	userContextKey = "current_user"
)

// RequireSession resolves the session cookie (or header, for non-browser
// clients) into a user and aborts unauthenticated requests.
func RequireSession(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := sessionID(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		user, err := authService.ValidateSession(c.Request.Context(), sessionID)
		if err != nil {
			if errors.Is(err, service.ErrSessionExpired) || errors.Is(err, service.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
				return
			}
			slog.ErrorContext(c.Request.Context(), "failed to validate session", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to validate session"})
			return
		}

		c.Set(userContextKey, user)
		c.Request = c.Request.WithContext(logger.WithLogFields(c.Request.Context(), logger.LogFields{
			ViewerID: logger.Ptr(user.ID),
		}))

		c.Next()
	}
}

// CurrentUser returns the user RequireSession resolved for this request.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}

func sessionID(c *gin.Context) (int64, error) {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return strconv.ParseInt(cookie, 10, 64)
	}
	header := c.GetHeader(SessionIDHeader)
	if header == "" {
		return 0, errors.New("no session")
	}
	return strconv.ParseInt(header, 10, 64)
}
