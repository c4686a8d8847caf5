package mvc

import (
	"errors"
	"net/http"

	"gohan/storage/contexts"
	e "gohan/storage/models/dtos/errors"
	storageErrors "gohan/storage/models/storage-errors"

	"github.com/labstack/echo"
)

// RespondWithError maps storage errors onto HTTP error responses.
func RespondWithError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, storageErrors.ErrInvalidArgument),
		errors.Is(err, storageErrors.ErrMissingAnnotatorMetadata),
		errors.Is(err, storageErrors.ErrNoCurrentAnnotation):
		return c.JSON(http.StatusBadRequest, e.CreateSimpleBadRequest(err.Error()))
	case errors.Is(err, storageErrors.ErrSnapshotNotFound):
		return c.JSON(http.StatusNotFound, e.CreateSimpleNotFound(err.Error()))
	case errors.Is(err, storageErrors.ErrAlreadyIndexed),
		errors.Is(err, storageErrors.ErrAnnotatorMismatch),
		errors.Is(err, storageErrors.ErrSourceVersionMismatch),
		errors.Is(err, storageErrors.ErrSnapshotNameDuplicate),
		errors.Is(err, storageErrors.ErrVersionConflict):
		return c.JSON(http.StatusConflict, e.CreateSimpleConflict(err.Error()))
	}

	if gc, ok := c.(*contexts.GohanContext); ok {
		gc.Logger().Errorf("Unexpected error: %s", err)
	}
	return c.JSON(http.StatusInternalServerError, e.CreateSimpleInternalServerError("Something went wrong. Please contact the administrator!"))
}
