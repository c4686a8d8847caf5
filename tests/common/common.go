package common

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path"
	"runtime"
	"strings"

	"gohan/storage/contexts"
	"gohan/storage/models"
	memRepo "gohan/storage/repositories/memory"
	"gohan/storage/services"
	annotationService "gohan/storage/services/annotation"
	partitionsService "gohan/storage/services/partitions"
	"gohan/storage/utils"

	"github.com/labstack/echo"
	yaml "gopkg.in/yaml.v2"
)

func InitConfig() *models.Config {
	var cfg models.Config

	// get this file's path
	_, filename, _, _ := runtime.Caller(0)
	folderpath := path.Dir(filename)

	// retrieve common's test.config
	f, err := os.Open(fmt.Sprintf("%s/test.config.yml", folderpath))
	if err != nil {
		processError(err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	err = decoder.Decode(&cfg)
	if err != nil {
		processError(err)
	}

	return &cfg
}

func processError(err error) {
	fmt.Println(err)
	os.Exit(2)
}

// TestServices are in-memory service singletons for handler tests.
type TestServices struct {
	Config      *models.Config
	Partitions  *partitionsService.PartitionsService
	Annotation  *annotationService.AnnotationService
	Ingestion   *services.IngestionService
	Sink        *memRepo.MutationSink
	Partition   *memRepo.PartitionStore
	Annotations *memRepo.AnnotationStore
}

func NewTestServices(cfg *models.Config) *TestServices {
	logger := utils.NewWriterLogger("test", io.Discard)

	ts := &TestServices{
		Config:      cfg,
		Sink:        memRepo.NewMutationSink(),
		Partition:   memRepo.NewPartitionStore(),
		Annotations: memRepo.NewAnnotationStore(),
	}
	ts.Partitions = partitionsService.NewPartitionsService(cfg, ts.Partition, logger)
	ts.Annotation = annotationService.NewAnnotationService(cfg, ts.Annotations, logger)
	ts.Ingestion = services.NewIngestionService(cfg, ts.Sink, nil, logger)
	return ts
}

// SetUpEcho builds a GohanContext for a request with an optional JSON body.
// Path parameters are given as name/value pairs.
func (ts *TestServices) SetUpEcho(method string, target string, body string, params ...string) (*contexts.GohanContext, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Logger.SetOutput(io.Discard)

	var reader io.Reader
	if len(body) > 0 {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if len(body) > 0 {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()

	c := e.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)

	gc := &contexts.GohanContext{
		Context:           c,
		Es7Client:         nil,
		Config:            ts.Config,
		PartitionsService: ts.Partitions,
		AnnotationService: ts.Annotation,
		IngestionService:  ts.Ingestion,
	}
	return gc, rec
}

func GetJsonBody(rec *httptest.ResponseRecorder) map[string]interface{} {
	// - extract body bytes from response
	body, _ := io.ReadAll(rec.Body)
	// - unmarshal or decode the JSON to a declared empty interface.
	var bodyJson map[string]interface{}
	json.Unmarshal(body, &bodyJson)

	return bodyJson
}
