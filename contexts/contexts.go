package contexts

import (
	"gohan/storage/models"
	"gohan/storage/services"
	annotationService "gohan/storage/services/annotation"
	partitionsService "gohan/storage/services/partitions"

	es7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/labstack/echo"
)

type (
	// "Helper" Context to pass into routes that need
	//  the metadata services and other variables
	GohanContext struct {
		echo.Context
		Es7Client         *es7.Client
		Config            *models.Config
		PartitionsService *partitionsService.PartitionsService
		AnnotationService *annotationService.AnnotationService
		IngestionService  *services.IngestionService

		// set by middleware
		Project   string
		Overwrite bool
	}
)
