package search

import (
	"github.com/inkwellnotes/inkwell/pkg/auth"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers the search route under /files.
func RegisterRoutes(e *echo.Echo, searchService *Service, authMiddleware *auth.Middleware) {
	h := &handler{
		searchService: searchService,
	}

	e.GET("/files/search", h.search, authMiddleware.Authenticate)
}
