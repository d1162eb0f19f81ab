package metadata

import (
	"net/http"

	"github.com/inkwellnotes/inkwell/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type handler struct {
	metadataService *Service
}

func (h *handler) setPrivacy(c echo.Context) error {
	ctx := c.Request().Context()

	params := PrivacyPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	file, err := h.metadataService.SetPrivacy(ctx, c.Param("id"), auth.OwnerID(c), *params.IsPublic)
	if err != nil {
		return err
	}

	logger.FromContext(ctx).Info("privacy updated", logger.Data{"file_id": file.ID, "is_public": file.IsPublic})

	return c.JSON(http.StatusOK, NewRecordResponse(file))
}

func (h *handler) listRecords(c echo.Context) error {
	ctx := c.Request().Context()

	files, err := h.metadataService.ListOwnerRecords(ctx, auth.OwnerID(c))
	if err != nil {
		return err
	}

	resp := make([]RecordResponse, 0, len(files))
	for _, file := range files {
		resp = append(resp, NewRecordResponse(file))
	}
	return c.JSON(http.StatusOK, resp)
}
