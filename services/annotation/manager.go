package annotationService

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gohan/storage/models/indexes"
	storageErrors "gohan/storage/models/storage-errors"
	"gohan/storage/repositories"

	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
)

type (
	// Annotator is the program producing the variant annotations.
	Annotator interface {
		GetDescriptor(ctx context.Context) (*indexes.AnnotatorDescriptor, error)
		GetSourceVersion(ctx context.Context) ([]indexes.SourceVersionEntry, error)
	}

	managerState struct {
		metadata *indexes.AnnotationMetadata
		version  indexes.DocumentVersion
	}

	// AnnotationVersionManager keeps track of the annotator that produced the
	// annotations of a project and of the named snapshots taken from them.
	AnnotationVersionManager struct {
		project string
		store   repositories.AnnotationStore
		logger  *log.Logger

		writeMux sync.Mutex
		state    atomic.Pointer[managerState]
	}
)

func NewAnnotationVersionManager(project string, store repositories.AnnotationStore, logger *log.Logger) *AnnotationVersionManager {
	m := &AnnotationVersionManager{
		project: project,
		store:   store,
		logger:  logger,
	}
	m.state.Store(&managerState{
		metadata: &indexes.AnnotationMetadata{Project: project, Saved: []*indexes.AnnotationRecord{}},
		version:  indexes.NewDocument,
	})
	return m
}

func (m *AnnotationVersionManager) Project() string { return m.project }

// Load replaces the in-memory metadata with the stored one.
func (m *AnnotationVersionManager) Load(ctx context.Context) error {
	m.writeMux.Lock()
	defer m.writeMux.Unlock()
	return m.load(ctx)
}

func (m *AnnotationVersionManager) load(ctx context.Context) error {
	metadata, version, err := m.store.LoadAnnotation(ctx, m.project)
	if err != nil {
		return err
	}
	m.state.Store(&managerState{metadata: metadata, version: version})
	return nil
}

// Metadata returns a copy of the current annotation metadata.
func (m *AnnotationVersionManager) Metadata() *indexes.AnnotationMetadata {
	return m.state.Load().metadata.Clone()
}

// CheckCurrent validates that annotating with descriptor and sources is
// compatible with the current annotation, and returns the current record.
// The first check creates the LATEST record in memory; nothing is stored.
func (m *AnnotationVersionManager) CheckCurrent(descriptor *indexes.AnnotatorDescriptor, sources []indexes.SourceVersionEntry, overwrite bool) (*indexes.AnnotationRecord, error) {
	if err := requireAnnotatorMetadata(descriptor, sources); err != nil {
		return nil, err
	}

	current := m.state.Load().metadata.Current
	if current == nil {
		m.writeMux.Lock()
		defer m.writeMux.Unlock()

		latest := m.state.Load()
		current = latest.metadata.Current
		if current == nil {
			metadata := latest.metadata.Clone()
			metadata.Current = newLatestRecord()
			m.state.Store(&managerState{metadata: metadata, version: latest.version})
			current = metadata.Current
		}
	}

	if err := m.validate(current, descriptor, sources, overwrite); err != nil {
		return nil, err
	}
	return current.Clone(), nil
}

func (m *AnnotationVersionManager) CheckAnnotator(ctx context.Context, annotator Annotator, overwrite bool) (*indexes.AnnotationRecord, error) {
	descriptor, sources, err := readAnnotator(ctx, annotator)
	if err != nil {
		return nil, err
	}
	return m.CheckCurrent(descriptor, sources, overwrite)
}

// Commit checks descriptor and sources again and records them
// as the producer of the current annotation.
func (m *AnnotationVersionManager) Commit(ctx context.Context, descriptor *indexes.AnnotatorDescriptor, sources []indexes.SourceVersionEntry, overwrite bool) (*indexes.AnnotationRecord, error) {
	if err := requireAnnotatorMetadata(descriptor, sources); err != nil {
		return nil, err
	}

	var committed *indexes.AnnotationRecord
	err := m.update(ctx, func(metadata *indexes.AnnotationMetadata) error {
		if metadata.Current == nil {
			metadata.Current = newLatestRecord()
		}
		if err := m.validate(metadata.Current, descriptor, sources, overwrite); err != nil {
			return err
		}

		d := *descriptor
		metadata.Current.Annotator = &d
		metadata.Current.SourceVersion = indexes.CloneSourceVersions(sources)
		committed = metadata.Current.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Infof("Committed annotator %s for project %s", descriptor, m.project)
	return committed, nil
}

func (m *AnnotationVersionManager) CommitAnnotator(ctx context.Context, annotator Annotator, overwrite bool) (*indexes.AnnotationRecord, error) {
	descriptor, sources, err := readAnnotator(ctx, annotator)
	if err != nil {
		return nil, err
	}
	return m.Commit(ctx, descriptor, sources, overwrite)
}

// RegisterSnapshot saves a copy of the current annotation under name.
func (m *AnnotationVersionManager) RegisterSnapshot(ctx context.Context, name string) (*indexes.AnnotationRecord, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.Wrap(storageErrors.ErrInvalidArgument, "snapshot name must not be empty")
	}

	var snapshot *indexes.AnnotationRecord
	err := m.update(ctx, func(metadata *indexes.AnnotationMetadata) error {
		if metadata.Current == nil {
			return errors.Wrapf(storageErrors.ErrNoCurrentAnnotation, "registering snapshot %q", name)
		}

		maxId := 0
		for _, saved := range metadata.Saved {
			if strings.EqualFold(saved.Name, name) {
				return &storageErrors.SnapshotNameDuplicateError{Name: name}
			}
			if saved.Id > maxId {
				maxId = saved.Id
			}
		}

		now := time.Now().UTC()
		snapshot = &indexes.AnnotationRecord{
			Id:            maxId + 1,
			Name:          name,
			Timestamp:     &now,
			SourceVersion: indexes.CloneSourceVersions(metadata.Current.SourceVersion),
		}
		if metadata.Current.Annotator != nil {
			a := *metadata.Current.Annotator
			snapshot.Annotator = &a
		}
		metadata.Saved = append(metadata.Saved, snapshot)
		snapshot = snapshot.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Infof("Registered annotation snapshot %d %q for project %s", snapshot.Id, name, m.project)
	return snapshot, nil
}

// RemoveSnapshot deletes the first snapshot named exactly name.
func (m *AnnotationVersionManager) RemoveSnapshot(ctx context.Context, name string) (*indexes.AnnotationRecord, error) {
	var removed *indexes.AnnotationRecord
	err := m.update(ctx, func(metadata *indexes.AnnotationMetadata) error {
		for i, saved := range metadata.Saved {
			if saved.Name == name {
				removed = saved
				metadata.Saved = append(metadata.Saved[:i], metadata.Saved[i+1:]...)
				return nil
			}
		}
		return &storageErrors.SnapshotNotFoundError{Name: name}
	})
	if err != nil {
		return nil, err
	}

	m.logger.Infof("Removed annotation snapshot %d %q from project %s", removed.Id, name, m.project)
	return removed, nil
}

// update applies mutate to a copy of the latest metadata and publishes it
// once the store accepted it. A failed validation or store write leaves
// the published metadata untouched.
func (m *AnnotationVersionManager) update(ctx context.Context, mutate func(*indexes.AnnotationMetadata) error) error {
	m.writeMux.Lock()
	defer m.writeMux.Unlock()

	latest := m.state.Load()
	metadata := latest.metadata.Clone()
	if err := mutate(metadata); err != nil {
		return err
	}

	version, err := m.store.SaveAnnotation(ctx, metadata, latest.version)
	if err != nil {
		if errors.Is(err, storageErrors.ErrVersionConflict) {
			m.logger.Warnf("Annotation metadata of project %s changed concurrently, reloading", m.project)
			if loadErr := m.load(ctx); loadErr != nil {
				m.logger.Errorf("Failed to reload annotation metadata of project %s: %s", m.project, loadErr)
			}
		}
		return err
	}

	m.state.Store(&managerState{metadata: metadata, version: version})
	return nil
}

func (m *AnnotationVersionManager) validate(current *indexes.AnnotationRecord, descriptor *indexes.AnnotatorDescriptor, sources []indexes.SourceVersionEntry, overwrite bool) error {
	if existing := current.Annotator; existing != nil && *existing != *descriptor {
		if existing.Name != descriptor.Name || existing.Version != descriptor.Version {
			mismatch := &storageErrors.AnnotatorMismatchError{Existing: existing, Attempted: descriptor}
			if !overwrite {
				return mismatch
			}
			m.logger.Info(mismatch.Error())
		} else {
			msg := "Using a different commit for annotating variants. Existing annotation calculated with " +
				existing.String() + ", attempting to annotate with " + descriptor.String()
			if overwrite {
				m.logger.Info(msg)
			} else {
				m.logger.Warn(msg)
			}
		}
	}

	if len(current.SourceVersion) > 0 && !indexes.SourceVersionsEqual(current.SourceVersion, sources) {
		mismatch := &storageErrors.SourceVersionMismatchError{Existing: current.SourceVersion, Attempted: sources}
		if !overwrite {
			return mismatch
		}
		m.logger.Info(mismatch.Error())
	}
	return nil
}

func newLatestRecord() *indexes.AnnotationRecord {
	return &indexes.AnnotationRecord{Id: -1, Name: indexes.LATEST}
}

func requireAnnotatorMetadata(descriptor *indexes.AnnotatorDescriptor, sources []indexes.SourceVersionEntry) error {
	if descriptor.IsEmpty() {
		return storageErrors.NewMissingAnnotatorMetadataError("Missing annotator information", nil)
	}
	if len(sources) == 0 {
		return storageErrors.NewMissingAnnotatorMetadataError("Missing annotator source version", nil)
	}
	return nil
}

func readAnnotator(ctx context.Context, annotator Annotator) (*indexes.AnnotatorDescriptor, []indexes.SourceVersionEntry, error) {
	descriptor, err := annotator.GetDescriptor(ctx)
	if err != nil {
		return nil, nil, storageErrors.NewMissingAnnotatorMetadataError("Error reading current annotation metadata", err)
	}
	sources, err := annotator.GetSourceVersion(ctx)
	if err != nil {
		return nil, nil, storageErrors.NewMissingAnnotatorMetadataError("Error reading current annotation metadata", err)
	}
	return descriptor, sources, nil
}
