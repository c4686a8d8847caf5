package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"gohan/storage/models/indexes"

	es7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
)

// AnnotationRepository stores one annotation metadata document per project,
// written under if_seq_no/if_primary_term concurrency control.
type AnnotationRepository struct {
	es     *es7.Client
	index  string
	logger *log.Logger
}

func NewAnnotationRepository(es *es7.Client, index string, logger *log.Logger) *AnnotationRepository {
	return &AnnotationRepository{es: es, index: index, logger: logger}
}

func (r *AnnotationRepository) LoadAnnotation(ctx context.Context, project string) (*indexes.AnnotationMetadata, indexes.DocumentVersion, error) {
	res, err := r.es.Get(r.index, project, r.es.Get.WithContext(ctx))
	if err != nil {
		return nil, indexes.NewDocument, errors.Wrapf(err, "loading annotation metadata of project %s", project)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return &indexes.AnnotationMetadata{
			Project: project,
			Saved:   []*indexes.AnnotationRecord{},
		}, indexes.NewDocument, nil
	}
	if err := checkResponse(res, "loading annotation metadata of project "+project); err != nil {
		return nil, indexes.NewDocument, err
	}

	parsed, err := parseBody(res.Body)
	if err != nil {
		return nil, indexes.NewDocument, err
	}
	seqNo, primaryTerm, err := readVersion(parsed)
	if err != nil {
		return nil, indexes.NewDocument, errors.Wrapf(err, "loading annotation metadata of project %s", project)
	}

	var metadata indexes.AnnotationMetadata
	if err := json.Unmarshal(parsed.Path("_source").Bytes(), &metadata); err != nil {
		return nil, indexes.NewDocument, errors.Wrapf(err, "decoding annotation metadata of project %s", project)
	}
	if metadata.Project == "" {
		metadata.Project = project
	}
	if metadata.Saved == nil {
		metadata.Saved = []*indexes.AnnotationRecord{}
	}

	return &metadata, indexes.DocumentVersion{SeqNo: seqNo, PrimaryTerm: primaryTerm}, nil
}

func (r *AnnotationRepository) SaveAnnotation(ctx context.Context, metadata *indexes.AnnotationMetadata, expected indexes.DocumentVersion) (indexes.DocumentVersion, error) {
	b, err := json.Marshal(metadata)
	if err != nil {
		return expected, errors.Wrap(err, "encoding annotation metadata")
	}

	action := "saving annotation metadata of project " + metadata.Project
	var (
		res  *esapi.Response
		rerr error
	)
	if expected.IsNew() {
		res, rerr = r.es.Create(r.index, metadata.Project, bytes.NewReader(b),
			r.es.Create.WithContext(ctx),
			r.es.Create.WithRefresh("true"))
	} else {
		res, rerr = r.es.Index(r.index, bytes.NewReader(b),
			r.es.Index.WithContext(ctx),
			r.es.Index.WithDocumentID(metadata.Project),
			r.es.Index.WithIfSeqNo(int(expected.SeqNo)),
			r.es.Index.WithIfPrimaryTerm(int(expected.PrimaryTerm)),
			r.es.Index.WithRefresh("true"))
	}
	if rerr != nil {
		return expected, errors.Wrap(rerr, action)
	}
	defer res.Body.Close()

	if err := checkResponse(res, action); err != nil {
		return expected, err
	}

	parsed, err := parseBody(res.Body)
	if err != nil {
		return expected, err
	}
	seqNo, primaryTerm, err := readVersion(parsed)
	if err != nil {
		return expected, errors.Wrap(err, action)
	}

	r.logger.Debugf("Stored annotation metadata of project %s at seq_no %d", metadata.Project, seqNo)
	return indexes.DocumentVersion{SeqNo: seqNo, PrimaryTerm: primaryTerm}, nil
}
