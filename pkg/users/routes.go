package users

import (
	"github.com/inkwellnotes/inkwell/pkg/metadata"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the public profile route.
func RegisterRoutes(e *echo.Echo, db *bun.DB, metadataService *metadata.Service) *Service {
	userService := NewService(db, metadataService)

	h := &handler{
		userService: userService,
	}

	e.GET("/users/:id", h.retrieve)

	return userService
}
