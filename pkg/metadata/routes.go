package metadata

import (
	"github.com/inkwellnotes/inkwell/pkg/auth"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers the owner-facing record routes.
func RegisterRoutes(e *echo.Echo, metadataService *Service, authMiddleware *auth.Middleware) {
	h := &handler{
		metadataService: metadataService,
	}

	g := e.Group("/files", authMiddleware.Authenticate)
	g.GET("/records", h.listRecords)
	g.PATCH("/:id/privacy", h.setPrivacy)
}
