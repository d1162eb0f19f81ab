package search

import (
	"net/http"

	"github.com/inkwellnotes/inkwell/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	searchService *Service
}

func (h *handler) search(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params
	params := Query{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	results, err := h.searchService.Search(ctx, Options{
		OwnerID: auth.OwnerID(c),
		Query:   params.Query,
		Glob:    params.Glob,
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, Response{
		Query:   params.Query,
		Results: results,
		Count:   len(results),
	}))
}
