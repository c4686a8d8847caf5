package variants

import (
	"fmt"
	"net/http"

	"gohan/storage/contexts"
	"gohan/storage/models"
	variantType "gohan/storage/models/constants/variant-type"
	e "gohan/storage/models/dtos/errors"
	"gohan/storage/models/ingest"
	"gohan/storage/utils"

	"github.com/labstack/echo"
)

// VariantsIngest queues a load of the posted variant records
// into the primary store.
func VariantsIngest(c echo.Context) error {
	gc := c.(*contexts.GohanContext)

	project := c.QueryParam("project")
	if len(project) == 0 {
		return c.JSON(http.StatusBadRequest, e.CreateSimpleBadRequest("Missing project"))
	}

	var records []*models.VariantRecord
	if err := c.Bind(&records); err != nil {
		return c.JSON(http.StatusBadRequest, e.CreateSimpleBadRequest(fmt.Sprintf("Invalid variant records: %s", err)))
	}
	if len(records) == 0 {
		return c.JSON(http.StatusBadRequest, e.CreateSimpleBadRequest("No variant records provided"))
	}

	// accept type aliases such as SNP or REF_BLOCK
	for _, r := range records {
		if r != nil {
			r.Type = variantType.CastToVariantType(string(r.Type))
		}
	}

	req := gc.IngestionService.Submit(project, records)

	return c.JSON(http.StatusAccepted, ingest.LoadResponseDTO{
		Id:      req.Id,
		State:   req.State,
		Message: fmt.Sprintf("Load of %d records queued", len(records)),
	})
}

func GetAllVariantIngestionRequests(c echo.Context) error {
	return c.JSON(http.StatusOK, c.(*contexts.GohanContext).IngestionService.GetRequests())
}

func GetVariantIngestionRequest(c echo.Context) error {
	id := c.Param("id")
	if !utils.IsValidUUID(id) {
		return c.JSON(http.StatusBadRequest, e.CreateSimpleBadRequest(fmt.Sprintf("Invalid request id %s - please provide a valid UUID", id)))
	}

	req := c.(*contexts.GohanContext).IngestionService.GetRequest(id)
	if req == nil {
		return c.JSON(http.StatusNotFound, e.CreateSimpleNotFound(fmt.Sprintf("Load request %s not found", id)))
	}
	return c.JSON(http.StatusOK, req)
}

func VariantsIngestionStats(c echo.Context) error {
	return c.JSON(http.StatusOK, c.(*contexts.GohanContext).IngestionService.Stats())
}
