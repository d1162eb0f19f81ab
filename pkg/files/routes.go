package files

import (
	"github.com/inkwellnotes/inkwell/pkg/auth"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers the file and folder routes. Every route acts on
// the authenticated owner's notes.
func RegisterRoutes(e *echo.Echo, filesService *Service, authMiddleware *auth.Middleware) {
	h := &handler{
		filesService: filesService,
	}

	f := e.Group("/files", authMiddleware.Authenticate)
	f.GET("/tree", h.tree)
	f.GET("/content", h.content)
	f.POST("", h.create)
	f.PUT("", h.update)
	f.DELETE("", h.delete)

	d := e.Group("/folders", authMiddleware.Authenticate)
	d.POST("", h.createFolder)
	d.DELETE("", h.deleteFolder)
	d.POST("/copy", h.copyFolder)
}
