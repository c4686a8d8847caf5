package repositories

import (
	"context"
	"fmt"

	"gohan/storage/models"
	"gohan/storage/models/indexes"
	esRepo "gohan/storage/repositories/elasticsearch"
	memRepo "gohan/storage/repositories/memory"

	es7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/labstack/gommon/log"
)

const (
	BackendElasticsearch = "elasticsearch"
	BackendMemory        = "memory"
)

// PartitionStore persists search partition records, one per partition.
type PartitionStore interface {
	// LoadPartitions returns the partitions of project ordered by id.
	LoadPartitions(ctx context.Context, project string) ([]*indexes.IndexPartition, error)
	// CreatePartition stores a new partition; it fails with
	// storageErrors.ErrVersionConflict if the partition id is taken.
	CreatePartition(ctx context.Context, partition *indexes.IndexPartition) error
	ListProjects(ctx context.Context) ([]string, error)
}

// AnnotationStore persists the annotation metadata of each project
// under optimistic concurrency control.
type AnnotationStore interface {
	// LoadAnnotation returns empty metadata and indexes.NewDocument
	// when nothing has been stored for project yet.
	LoadAnnotation(ctx context.Context, project string) (*indexes.AnnotationMetadata, indexes.DocumentVersion, error)
	// SaveAnnotation fails with storageErrors.ErrVersionConflict unless
	// the stored document is still at expected.
	SaveAnnotation(ctx context.Context, metadata *indexes.AnnotationMetadata, expected indexes.DocumentVersion) (indexes.DocumentVersion, error)
}

// MutationSink applies storage mutations to the primary store.
// Applying the same mutation twice must be harmless.
type MutationSink interface {
	Apply(ctx context.Context, mutations []*models.StorageMutation) error
	Close(ctx context.Context) error
}

func NewMetadataStores(ctx context.Context, cfg *models.Config, es *es7.Client, logger *log.Logger) (PartitionStore, AnnotationStore, error) {
	switch cfg.Metadata.Backend {
	case BackendElasticsearch:
		if es == nil {
			return nil, nil, fmt.Errorf("metadata backend %q requires an elasticsearch client", cfg.Metadata.Backend)
		}
		partitions := esRepo.NewPartitionRepository(es, cfg.Metadata.PartitionsIndex, logger)
		annotations := esRepo.NewAnnotationRepository(es, cfg.Metadata.AnnotationsIndex, logger)
		if err := esRepo.EnsureIndex(ctx, es, cfg.Metadata.PartitionsIndex, indexes.PARTITION_INDEX_MAPPING); err != nil {
			return nil, nil, err
		}
		if err := esRepo.EnsureIndex(ctx, es, cfg.Metadata.AnnotationsIndex, indexes.ANNOTATION_INDEX_MAPPING); err != nil {
			return nil, nil, err
		}
		return partitions, annotations, nil
	case BackendMemory:
		return memRepo.NewPartitionStore(), memRepo.NewAnnotationStore(), nil
	default:
		return nil, nil, fmt.Errorf("unknown metadata backend %q", cfg.Metadata.Backend)
	}
}

func NewMutationSink(ctx context.Context, cfg *models.Config, es *es7.Client, logger *log.Logger) (MutationSink, error) {
	switch cfg.Ingestion.Sink {
	case BackendElasticsearch:
		if es == nil {
			return nil, fmt.Errorf("ingestion sink %q requires an elasticsearch client", cfg.Ingestion.Sink)
		}
		if err := esRepo.EnsureIndex(ctx, es, cfg.Ingestion.VariantsIndex, indexes.VARIANT_INDEX_MAPPING); err != nil {
			return nil, err
		}
		//see: https://www.elastic.co/blog/why-am-i-seeing-bulk-rejections-in-my-elasticsearch-cluster
		numWorkers := cfg.Ingestion.BulkIndexingCap / 100
		if numWorkers < 1 {
			numWorkers = 1
		}
		return esRepo.NewBulkMutationSink(es, cfg.Ingestion.VariantsIndex, numWorkers, logger)
	case BackendMemory:
		return memRepo.NewMutationSink(), nil
	default:
		return nil, fmt.Errorf("unknown ingestion sink %q", cfg.Ingestion.Sink)
	}
}
