package auth

import (
	"net/http"
	"time"

	"github.com/inkwellnotes/inkwell/pkg/errcodes"
	"github.com/inkwellnotes/inkwell/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "inkwell_session"
	// CookieMaxAge is how long the cookie is valid.
	CookieMaxAge = TokenExpiry
)

type handler struct {
	authService *Service
}

func buildUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
}

func sessionCookie(c echo.Context, value string, maxAge time.Duration) *http.Cookie {
	age := int(maxAge.Seconds())
	if maxAge < 0 {
		age = -1
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   age,
		HttpOnly: true,
		Secure:   c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *handler) register(c echo.Context) error {
	ctx := c.Request().Context()

	params := RegisterPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.Register(ctx, RegisterOptions(params))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, buildUserResponse(user))
}

func (h *handler) login(c echo.Context) error {
	ctx := c.Request().Context()

	params := LoginPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.Authenticate(ctx, params.Email, params.Password)
	if err != nil {
		return err
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return errors.WithStack(err)
	}

	c.SetCookie(sessionCookie(c, token, CookieMaxAge))

	return c.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        buildUserResponse(user),
	})
}

func (h *handler) logout(c echo.Context) error {
	c.SetCookie(sessionCookie(c, "", -1))
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *handler) me(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}
	return c.JSON(http.StatusOK, buildUserResponse(user))
}
