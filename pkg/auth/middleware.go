package auth

import (
	"strings"

	"github.com/inkwellnotes/inkwell/pkg/errcodes"
	"github.com/inkwellnotes/inkwell/pkg/models"
	"github.com/labstack/echo/v4"
)

const (
	contextKeyUser    = "user"
	contextKeyOwnerID = "user_id"
)

// Middleware provides authentication middleware.
type Middleware struct {
	authService *Service
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(authService *Service) *Middleware {
	return &Middleware{
		authService: authService,
	}
}

// Authenticate accepts a bearer token or the session cookie. If the token is
// valid and its user is still active, the user is stored on the context;
// otherwise the request is rejected with a 401.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := tokenFromRequest(c)
		if token == "" {
			return errcodes.Unauthorized("Authentication required")
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			return errcodes.Unauthorized("Invalid or expired token")
		}

		user, err := m.authService.GetUserByID(c.Request().Context(), claims.Subject)
		if err != nil {
			return errcodes.Unauthorized("User not found or inactive")
		}

		c.Set(contextKeyUser, user)
		c.Set(contextKeyOwnerID, user.ID)

		return next(c)
	}
}

// OwnerID returns the id of the authenticated user. Handlers behind
// Authenticate can rely on it being non-empty.
func OwnerID(c echo.Context) string {
	id, _ := c.Get(contextKeyOwnerID).(string)
	return id
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(c echo.Context) (*models.User, bool) {
	user, ok := c.Get(contextKeyUser).(*models.User)
	return user, ok
}

func tokenFromRequest(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}

	cookie, err := c.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
