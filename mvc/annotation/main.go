package annotation

import (
	"net/http"

	"gohan/storage/contexts"
	"gohan/storage/models/dtos"
	e "gohan/storage/models/dtos/errors"
	"gohan/storage/mvc"

	"github.com/labstack/echo"
)

func GetAnnotationMetadata(c echo.Context) error {
	gc := c.(*contexts.GohanContext)

	metadata, err := gc.AnnotationService.Metadata(c.Request().Context(), gc.Project)
	if err != nil {
		return mvc.RespondWithError(c, err)
	}
	return c.JSON(http.StatusOK, metadata)
}

func CheckCurrentAnnotation(c echo.Context) error {
	gc := c.(*contexts.GohanContext)

	var body dtos.AnnotationRequestDto
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, e.CreateSimpleBadRequest("Invalid annotation body"))
	}

	current, err := gc.AnnotationService.CheckCurrent(c.Request().Context(), gc.Project, body.Annotator, body.SourceVersion, gc.Overwrite)
	if err != nil {
		return mvc.RespondWithError(c, err)
	}
	return c.JSON(http.StatusOK, current)
}

func CommitAnnotation(c echo.Context) error {
	gc := c.(*contexts.GohanContext)

	var body dtos.AnnotationRequestDto
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, e.CreateSimpleBadRequest("Invalid annotation body"))
	}

	current, err := gc.AnnotationService.Commit(c.Request().Context(), gc.Project, body.Annotator, body.SourceVersion, gc.Overwrite)
	if err != nil {
		return mvc.RespondWithError(c, err)
	}
	return c.JSON(http.StatusOK, current)
}

func RegisterSnapshot(c echo.Context) error {
	gc := c.(*contexts.GohanContext)

	snapshot, err := gc.AnnotationService.RegisterSnapshot(c.Request().Context(), gc.Project, c.Param("name"))
	if err != nil {
		return mvc.RespondWithError(c, err)
	}
	return c.JSON(http.StatusCreated, snapshot)
}

func RemoveSnapshot(c echo.Context) error {
	gc := c.(*contexts.GohanContext)

	snapshot, err := gc.AnnotationService.RemoveSnapshot(c.Request().Context(), gc.Project, c.Param("name"))
	if err != nil {
		return mvc.RespondWithError(c, err)
	}
	return c.JSON(http.StatusOK, snapshot)
}
