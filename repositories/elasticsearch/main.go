package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/Jeffail/gabs"
	es7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	storageErrors "gohan/storage/models/storage-errors"
)

// EnsureIndex creates index with the given mapping unless it exists already.
func EnsureIndex(ctx context.Context, es *es7.Client, index string, mapping map[string]interface{}) error {
	res, err := es.Indices.Exists([]string{index}, es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return errors.Wrapf(err, "checking index %s", index)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	body, err := json.Marshal(map[string]interface{}{"mappings": mapping})
	if err != nil {
		return errors.Wrapf(err, "encoding mapping of index %s", index)
	}

	res, err = es.Indices.Create(index,
		es.Indices.Create.WithContext(ctx),
		es.Indices.Create.WithBody(bytes.NewReader(body)))
	if err != nil {
		return errors.Wrapf(err, "creating index %s", index)
	}
	defer res.Body.Close()

	// lost a creation race to another instance
	if res.StatusCode == http.StatusBadRequest {
		parsed, _ := parseBody(res.Body)
		if parsed != nil && parsed.Path("error.type").Data() == "resource_already_exists_exception" {
			return nil
		}
	}
	if res.IsError() {
		return errors.Errorf("creating index %s: %s", index, res.Status())
	}
	return nil
}

func parseBody(body io.Reader) (*gabs.Container, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(err, "reading response body")
	}
	parsed, err := gabs.ParseJSON(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parsing response body")
	}
	return parsed, nil
}

// checkResponse maps a 409 to a version conflict and any other
// error status to a plain error.
func checkResponse(res *esapi.Response, action string) error {
	if res.StatusCode == http.StatusConflict {
		return errors.Wrap(storageErrors.ErrVersionConflict, action)
	}
	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return errors.Errorf("%s: %s %s", action, res.Status(), string(raw))
	}
	return nil
}

func readVersion(parsed *gabs.Container) (int64, int64, error) {
	seqNo, seqOk := parsed.Path("_seq_no").Data().(float64)
	primaryTerm, termOk := parsed.Path("_primary_term").Data().(float64)
	if !seqOk || !termOk {
		return 0, 0, errors.New("response carries no document version")
	}
	return int64(seqNo), int64(primaryTerm), nil
}

// decodeSource decodes a document `_source` into result, using the json
// tags of result and accepting RFC3339 timestamps.
func decodeSource(source interface{}, result interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339),
		TagName:    "json",
		Result:     result,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(source)
}
