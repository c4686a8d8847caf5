package partitions

import (
	"net/http"
	"net/url"
	"strings"

	"gohan/storage/contexts"
	"gohan/storage/models/dtos"
	e "gohan/storage/models/dtos/errors"
	"gohan/storage/models/indexes"
	"gohan/storage/models/query"
	"gohan/storage/mvc"

	"github.com/labstack/echo"
)

func RegisterPartition(c echo.Context) error {
	gc := c.(*contexts.GohanContext)

	var body dtos.RegisterPartitionRequestDto
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, e.CreateSimpleBadRequest("Invalid partition body"))
	}

	partition, err := gc.PartitionsService.RegisterPartition(c.Request().Context(), gc.Project, body.CollectionName, body.Samples, body.Files)
	if err != nil {
		return mvc.RespondWithError(c, err)
	}
	return c.JSON(http.StatusCreated, partition)
}

func GetPartitions(c echo.Context) error {
	gc := c.(*contexts.GohanContext)

	partitions, err := gc.PartitionsService.Partitions(c.Request().Context(), gc.Project)
	if err != nil {
		return mvc.RespondWithError(c, err)
	}
	return c.JSON(http.StatusOK, dtos.PartitionsResponseDto{
		Project:    gc.Project,
		Count:      len(partitions),
		Partitions: partitions,
	})
}

// LookupPartition finds the partition of a `sample` or of a `file`.
func LookupPartition(c echo.Context) error {
	gc := c.(*contexts.GohanContext)
	ctx := c.Request().Context()

	var (
		partition *indexes.IndexPartition
		err       error
	)
	sample, file := c.QueryParam("sample"), c.QueryParam("file")
	switch {
	case len(sample) > 0 && len(file) > 0:
		return c.JSON(http.StatusBadRequest, e.CreateSimpleBadRequest("Provide either a sample or a file, not both"))
	case len(sample) > 0:
		partition, err = gc.PartitionsService.LookupPartitionForSample(ctx, gc.Project, sample)
	case len(file) > 0:
		partition, err = gc.PartitionsService.LookupPartitionForFile(ctx, gc.Project, file)
	default:
		return c.JSON(http.StatusBadRequest, e.CreateSimpleBadRequest("Missing sample or file"))
	}
	if err != nil {
		return mvc.RespondWithError(c, err)
	}
	if partition == nil {
		return c.JSON(http.StatusNotFound, e.CreateSimpleNotFound("No partition covers the requested id"))
	}
	return c.JSON(http.StatusOK, partition)
}

// RoutePartition reports the single partition able to answer the query
// given by the request parameters, if any.
func RoutePartition(c echo.Context) error {
	gc := c.(*contexts.GohanContext)

	// genotype filters separate samples with a bare ';'
	params, err := url.ParseQuery(strings.ReplaceAll(c.Request().URL.RawQuery, ";", "%3B"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, e.CreateSimpleBadRequest("Invalid query"))
	}

	target, err := gc.PartitionsService.Route(c.Request().Context(), gc.Project, query.FromValues(params))
	if err != nil {
		return mvc.RespondWithError(c, err)
	}
	return c.JSON(http.StatusOK, dtos.RoutingResponseDto{
		Project:        gc.Project,
		Resolved:       target.Resolved,
		PartitionId:    target.PartitionId,
		CollectionName: target.CollectionName,
	})
}
