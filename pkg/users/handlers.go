package users

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	userService *Service
}

func (h *handler) retrieve(c echo.Context) error {
	profile, err := h.userService.RetrieveProfile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, profile))
}
