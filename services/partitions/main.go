package partitionsService

import (
	"context"
	"sort"
	"sync"

	"gohan/storage/models"
	"gohan/storage/models/indexes"
	"gohan/storage/models/query"
	"gohan/storage/repositories"
	routingService "gohan/storage/services/routing"

	"github.com/labstack/gommon/log"
)

type (
	// PartitionsService owns one CoverageRegistry per project,
	// loading each from the store on first use.
	PartitionsService struct {
		Config *models.Config

		store  repositories.PartitionStore
		logger *log.Logger

		registriesMux sync.Mutex
		registries    map[string]*CoverageRegistry
	}
)

func NewPartitionsService(cfg *models.Config, store repositories.PartitionStore, logger *log.Logger) *PartitionsService {
	return &PartitionsService{
		Config:     cfg,
		store:      store,
		logger:     logger,
		registries: map[string]*CoverageRegistry{},
	}
}

// Registry returns the registry of project, loading it if needed.
func (ps *PartitionsService) Registry(ctx context.Context, project string) (*CoverageRegistry, error) {
	ps.registriesMux.Lock()
	defer ps.registriesMux.Unlock()

	if r, ok := ps.registries[project]; ok {
		return r, nil
	}

	r := NewCoverageRegistry(project, ps.Config.Metadata.DbName, ps.store, ps.logger)
	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	ps.registries[project] = r
	return r, nil
}

// LoadedProjects lists the projects whose registry is in memory.
func (ps *PartitionsService) LoadedProjects() []string {
	ps.registriesMux.Lock()
	defer ps.registriesMux.Unlock()

	projects := make([]string, 0, len(ps.registries))
	for p := range ps.registries {
		projects = append(projects, p)
	}
	sort.Strings(projects)
	return projects
}

func (ps *PartitionsService) RegisterPartition(ctx context.Context, project string, collectionName string, sampleIds []string, fileIds []string) (*indexes.IndexPartition, error) {
	r, err := ps.Registry(ctx, project)
	if err != nil {
		return nil, err
	}
	return r.RegisterPartition(ctx, collectionName, sampleIds, fileIds)
}

func (ps *PartitionsService) Partitions(ctx context.Context, project string) ([]*indexes.IndexPartition, error) {
	r, err := ps.Registry(ctx, project)
	if err != nil {
		return nil, err
	}
	return r.Snapshot().Partitions(), nil
}

func (ps *PartitionsService) LookupPartitionForSample(ctx context.Context, project string, sampleId string) (*indexes.IndexPartition, error) {
	r, err := ps.Registry(ctx, project)
	if err != nil {
		return nil, err
	}
	return r.LookupPartitionForSample(sampleId), nil
}

func (ps *PartitionsService) LookupPartitionForFile(ctx context.Context, project string, fileId string) (*indexes.IndexPartition, error) {
	r, err := ps.Registry(ctx, project)
	if err != nil {
		return nil, err
	}
	return r.LookupPartitionForFile(fileId), nil
}

// Route resolves q against the current coverage of project.
func (ps *PartitionsService) Route(ctx context.Context, project string, q query.Query) (routingService.RoutingTarget, error) {
	r, err := ps.Registry(ctx, project)
	if err != nil {
		return routingService.Unresolved, err
	}
	return routingService.Route(q, r.Snapshot()), nil
}
