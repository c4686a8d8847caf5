package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"gohan/storage/contexts"
	"gohan/storage/models/dtos/errors"

	"github.com/labstack/echo"
)

/*
Echo middleware to prepare the context for an optionally provided `overwrite` HTTP query parameter
*/
func ValidateOptionalOverwriteParam(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		gc := c.(*contexts.GohanContext)

		gc.Overwrite = false
		if qp := c.QueryParam("overwrite"); len(qp) > 0 {
			overwrite, err := strconv.ParseBool(qp)
			if err != nil {
				return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(fmt.Sprintf("Invalid overwrite value %s", qp)))
			}
			gc.Overwrite = overwrite
		}

		return next(gc)
	}
}
