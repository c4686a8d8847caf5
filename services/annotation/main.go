package annotationService

import (
	"context"
	"sync"

	"gohan/storage/models"
	"gohan/storage/models/indexes"
	"gohan/storage/repositories"

	"github.com/labstack/gommon/log"
)

type (
	AnnotationService struct {
		Config *models.Config

		store  repositories.AnnotationStore
		logger *log.Logger

		managersMux sync.Mutex
		managers    map[string]*AnnotationVersionManager
	}
)

func NewAnnotationService(cfg *models.Config, store repositories.AnnotationStore, logger *log.Logger) *AnnotationService {
	return &AnnotationService{
		Config:   cfg,
		store:    store,
		logger:   logger,
		managers: map[string]*AnnotationVersionManager{},
	}
}

// Manager returns the version manager of project, loading it if needed.
func (as *AnnotationService) Manager(ctx context.Context, project string) (*AnnotationVersionManager, error) {
	as.managersMux.Lock()
	defer as.managersMux.Unlock()

	if m, ok := as.managers[project]; ok {
		return m, nil
	}

	m := NewAnnotationVersionManager(project, as.store, as.logger)
	if err := m.Load(ctx); err != nil {
		return nil, err
	}
	as.managers[project] = m
	return m, nil
}

func (as *AnnotationService) Metadata(ctx context.Context, project string) (*indexes.AnnotationMetadata, error) {
	m, err := as.Manager(ctx, project)
	if err != nil {
		return nil, err
	}
	return m.Metadata(), nil
}

func (as *AnnotationService) CheckCurrent(ctx context.Context, project string, descriptor *indexes.AnnotatorDescriptor, sources []indexes.SourceVersionEntry, overwrite bool) (*indexes.AnnotationRecord, error) {
	m, err := as.Manager(ctx, project)
	if err != nil {
		return nil, err
	}
	return m.CheckCurrent(descriptor, sources, overwrite)
}

func (as *AnnotationService) Commit(ctx context.Context, project string, descriptor *indexes.AnnotatorDescriptor, sources []indexes.SourceVersionEntry, overwrite bool) (*indexes.AnnotationRecord, error) {
	m, err := as.Manager(ctx, project)
	if err != nil {
		return nil, err
	}
	return m.Commit(ctx, descriptor, sources, overwrite)
}

func (as *AnnotationService) RegisterSnapshot(ctx context.Context, project string, name string) (*indexes.AnnotationRecord, error) {
	m, err := as.Manager(ctx, project)
	if err != nil {
		return nil, err
	}
	return m.RegisterSnapshot(ctx, name)
}

func (as *AnnotationService) RemoveSnapshot(ctx context.Context, project string, name string) (*indexes.AnnotationRecord, error) {
	m, err := as.Manager(ctx, project)
	if err != nil {
		return nil, err
	}
	return m.RemoveSnapshot(ctx, name)
}
