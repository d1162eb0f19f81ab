package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/inkwellnotes/inkwell/pkg/auth"
	"github.com/inkwellnotes/inkwell/pkg/binder"
	"github.com/inkwellnotes/inkwell/pkg/config"
	"github.com/inkwellnotes/inkwell/pkg/errcodes"
	"github.com/inkwellnotes/inkwell/pkg/files"
	"github.com/inkwellnotes/inkwell/pkg/metadata"
	"github.com/inkwellnotes/inkwell/pkg/metrics"
	"github.com/inkwellnotes/inkwell/pkg/public"
	"github.com/inkwellnotes/inkwell/pkg/sandbox"
	"github.com/inkwellnotes/inkwell/pkg/search"
	"github.com/inkwellnotes/inkwell/pkg/users"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB, sb *sandbox.Sandbox) (*http.Server, error) {
	e, err := newEcho(cfg, db, sb)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func newEcho(cfg *config.Config, db *bun.DB, sb *sandbox.Sandbox) (*echo.Echo, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowCredentials: true,
	}))
	e.Use(metrics.Middleware())

	health.RegisterRoutes(e)
	metrics.RegisterRoutes(e)

	metadataService := metadata.NewService(db)
	filesService := files.NewService(sb, metadataService, cfg.FolderDeletePolicy)
	searchService := search.NewService(sb, cfg.SearchMaxFileBytes)

	// Register auth routes and get the middleware every owner route uses
	authMiddleware := auth.RegisterRoutes(e, db, cfg.JWTSecret)

	files.RegisterRoutes(e, filesService, authMiddleware)
	search.RegisterRoutes(e, searchService, authMiddleware)
	metadata.RegisterRoutes(e, metadataService, authMiddleware)

	// Unauthenticated routes
	public.RegisterRoutes(e, metadataService, filesService, cfg.PublicRateLimit)
	users.RegisterRoutes(e, db, metadataService)

	e.RouteNotFound("/*", notFoundHandler)
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	return e, nil
}

func notFoundHandler(_ echo.Context) error {
	return errcodes.NotFound("Page")
}
