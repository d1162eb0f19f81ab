package public

import (
	"net/http"

	"github.com/inkwellnotes/inkwell/pkg/errcodes"
	"github.com/inkwellnotes/inkwell/pkg/files"
	"github.com/inkwellnotes/inkwell/pkg/metadata"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	metadataService *metadata.Service
	filesService    *files.Service
}

func (h *handler) listNotes(c echo.Context) error {
	ctx := c.Request().Context()

	params := metadata.FeedQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	notes, total, err := h.metadataService.ListPublicFeed(ctx, metadata.FeedOptions(params))
	if err != nil {
		return err
	}
	return errors.WithStack(c.JSON(http.StatusOK, metadata.NewFeedResponse(notes, total)))
}

func (h *handler) listUserNotes(c echo.Context) error {
	ctx := c.Request().Context()

	params := metadata.FeedQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	notes, total, err := h.metadataService.ListOwnerPublicFeed(ctx, c.Param("id"), metadata.FeedOptions(params))
	if err != nil {
		return err
	}
	return errors.WithStack(c.JSON(http.StatusOK, metadata.NewFeedResponse(notes, total)))
}

func (h *handler) noteContent(c echo.Context) error {
	ctx := c.Request().Context()

	note, err := h.metadataService.RetrievePublic(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	// The record can outlive its file until the reconciler catches up.
	content, err := h.filesService.Read(ctx, note.UserID, note.FilePath)
	if err != nil {
		if errcodes.HasCode(err, errcodes.CodeNotFound) || errcodes.HasCode(err, errcodes.CodeInvalidPath) {
			return errcodes.NotFound("Public note")
		}
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, NoteContentResponse{
		PublicNote: metadata.NewPublicNote(note),
		Content:    string(content),
	}))
}
