package public

import (
	"github.com/inkwellnotes/inkwell/pkg/errcodes"
	"github.com/inkwellnotes/inkwell/pkg/files"
	"github.com/inkwellnotes/inkwell/pkg/metadata"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes registers the unauthenticated feed routes. Requests are
// rate limited per client IP; a non-positive limit disables the limiter.
func RegisterRoutes(e *echo.Echo, metadataService *metadata.Service, filesService *files.Service, requestsPerSecond float64) {
	h := &handler{
		metadataService: metadataService,
		filesService:    filesService,
	}

	g := e.Group("/public")
	if requestsPerSecond > 0 {
		g.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStore(rate.Limit(requestsPerSecond)),
			ErrorHandler: func(_ echo.Context, _ error) error {
				return errcodes.Forbidden("Access")
			},
			DenyHandler: func(_ echo.Context, _ string, _ error) error {
				return errcodes.TooManyRequests()
			},
		}))
	}

	g.GET("/notes", h.listNotes)
	g.GET("/notes/:id/content", h.noteContent)
	g.GET("/users/:id/notes", h.listUserNotes)
}
