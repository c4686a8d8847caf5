package middleware

import (
	"fmt"
	"net/http"
	"regexp"

	"gohan/storage/contexts"
	"gohan/storage/models/dtos/errors"

	"github.com/labstack/echo"
)

// project names end up in document ids and collection names
var validProject = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.@-]*$`)

/*
Echo middleware to ensure a valid `project` path parameter was provided
*/
func MandateProjectPathParam(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		gc := c.(*contexts.GohanContext)

		project := c.Param("project")
		if len(project) == 0 {
			return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest("Missing project"))
		}
		if !validProject.MatchString(project) {
			return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(fmt.Sprintf("Invalid project %s", project)))
		}

		gc.Project = project
		return next(gc)
	}
}
