package files

import (
	"net/http"

	"github.com/inkwellnotes/inkwell/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	filesService *Service
}

func (h *handler) tree(c echo.Context) error {
	nodes, err := h.filesService.Tree(c.Request().Context(), auth.OwnerID(c))
	if err != nil {
		return err
	}
	return errors.WithStack(c.JSON(http.StatusOK, TreeResponse{Nodes: nodes}))
}

func (h *handler) content(c echo.Context) error {
	params := PathQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	content, err := h.filesService.Read(c.Request().Context(), auth.OwnerID(c), params.Path)
	if err != nil {
		return err
	}
	return errors.WithStack(c.JSON(http.StatusOK, ContentResponse{Path: params.Path, Content: string(content)}))
}

func (h *handler) create(c echo.Context) error {
	return h.write(c, http.StatusCreated)
}

func (h *handler) update(c echo.Context) error {
	return h.write(c, http.StatusOK)
}

func (h *handler) write(c echo.Context, status int) error {
	params := WritePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.filesService.Write(c.Request().Context(), WriteOptions{
		OwnerID: auth.OwnerID(c),
		Path:    params.Path,
		Content: []byte(params.Content),
		Index:   params.Index,
	})
	if err != nil {
		return err
	}
	return errors.WithStack(c.JSON(status, WriteResponse{Path: result.Path, RecordID: result.RecordID}))
}

func (h *handler) delete(c echo.Context) error {
	params := PathQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if err := h.filesService.Delete(c.Request().Context(), auth.OwnerID(c), params.Path); err != nil {
		return err
	}
	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) createFolder(c echo.Context) error {
	params := FolderPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	path, err := h.filesService.CreateFolder(c.Request().Context(), auth.OwnerID(c), params.Path)
	if err != nil {
		return err
	}
	return errors.WithStack(c.JSON(http.StatusCreated, FolderResponse{Path: path}))
}

func (h *handler) deleteFolder(c echo.Context) error {
	params := PathQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if err := h.filesService.DeleteFolder(c.Request().Context(), auth.OwnerID(c), params.Path); err != nil {
		return err
	}
	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) copyFolder(c echo.Context) error {
	params := CopyFolderPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	path, err := h.filesService.CopyFolder(c.Request().Context(), auth.OwnerID(c), params.Source, params.Destination)
	if err != nil {
		return err
	}
	return errors.WithStack(c.JSON(http.StatusCreated, FolderResponse{Path: path}))
}
