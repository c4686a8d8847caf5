package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"

	"gohan/storage/models/indexes"

	es7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
)

// maximum number of partitions read back per project
const maxPartitionsPerProject = 10000

type PartitionRepository struct {
	es     *es7.Client
	index  string
	logger *log.Logger
}

func NewPartitionRepository(es *es7.Client, index string, logger *log.Logger) *PartitionRepository {
	return &PartitionRepository{es: es, index: index, logger: logger}
}

func (r *PartitionRepository) CreatePartition(ctx context.Context, partition *indexes.IndexPartition) error {
	b, err := json.Marshal(partition)
	if err != nil {
		return errors.Wrap(err, "encoding partition")
	}

	// create (not index) so that two writers allocating the same id collide
	res, err := r.es.Create(r.index, partition.DocumentId(), bytes.NewReader(b),
		r.es.Create.WithContext(ctx),
		r.es.Create.WithRefresh("true"))
	if err != nil {
		return errors.Wrapf(err, "creating partition %s", partition.DocumentId())
	}
	defer res.Body.Close()

	if err := checkResponse(res, "creating partition "+partition.DocumentId()); err != nil {
		return err
	}

	r.logger.Debugf("Stored partition %s (%s) in %s", partition.DocumentId(), partition.CollectionName, r.index)
	return nil
}

func (r *PartitionRepository) LoadPartitions(ctx context.Context, project string) ([]*indexes.IndexPartition, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []map[string]interface{}{{
					"term": map[string]interface{}{
						"project": project,
					},
				}},
			},
		},
		"size": maxPartitionsPerProject,
	}

	hits, err := r.search(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "loading partitions of project %s", project)
	}

	partitions := make([]*indexes.IndexPartition, 0, len(hits))
	for _, source := range hits {
		var partition indexes.IndexPartition
		if err := decodeSource(source, &partition); err != nil {
			return nil, errors.Wrapf(err, "decoding partition of project %s", project)
		}
		partitions = append(partitions, &partition)
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i].Id < partitions[j].Id })

	return partitions, nil
}

func (r *PartitionRepository) ListProjects(ctx context.Context) ([]string, error) {
	query := map[string]interface{}{
		"size": 0,
		"aggs": map[string]interface{}{
			"projects": map[string]interface{}{
				"terms": map[string]interface{}{
					"field": "project",
					"size":  maxPartitionsPerProject,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, errors.Wrap(err, "encoding projects query")
	}
	res, err := r.es.Search(
		r.es.Search.WithContext(ctx),
		r.es.Search.WithIndex(r.index),
		r.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, errors.Wrap(err, "listing projects")
	}
	defer res.Body.Close()
	if err := checkResponse(res, "listing projects"); err != nil {
		return nil, err
	}

	parsed, err := parseBody(res.Body)
	if err != nil {
		return nil, err
	}
	buckets, _ := parsed.Path("aggregations.projects.buckets").Children()

	projects := make([]string, 0, len(buckets))
	for _, bucket := range buckets {
		if key, ok := bucket.Path("key").Data().(string); ok {
			projects = append(projects, key)
		}
	}
	sort.Strings(projects)
	return projects, nil
}

// search runs query against the repository index and
// returns the `_source` of every hit.
func (r *PartitionRepository) search(ctx context.Context, query map[string]interface{}) ([]interface{}, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, errors.Wrap(err, "encoding query")
	}

	res, err := r.es.Search(
		r.es.Search.WithContext(ctx),
		r.es.Search.WithIndex(r.index),
		r.es.Search.WithBody(&buf),
		r.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if err := checkResponse(res, "searching "+r.index); err != nil {
		return nil, err
	}

	parsed, err := parseBody(res.Body)
	if err != nil {
		return nil, err
	}

	children, _ := parsed.Path("hits.hits").Children()
	sources := make([]interface{}, 0, len(children))
	for _, hit := range children {
		sources = append(sources, hit.Path("_source").Data())
	}
	return sources, nil
}
