package memory

import (
	"context"
	"sort"
	"sync"

	"gohan/storage/models"
	"gohan/storage/models/indexes"
	storageErrors "gohan/storage/models/storage-errors"

	"github.com/pkg/errors"
)

// PartitionStore keeps partition records in process memory.
type PartitionStore struct {
	mux        sync.RWMutex
	partitions map[string]map[int]*indexes.IndexPartition
}

func NewPartitionStore() *PartitionStore {
	return &PartitionStore{partitions: map[string]map[int]*indexes.IndexPartition{}}
}

func (s *PartitionStore) CreatePartition(ctx context.Context, partition *indexes.IndexPartition) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	byId, ok := s.partitions[partition.Project]
	if !ok {
		byId = map[int]*indexes.IndexPartition{}
		s.partitions[partition.Project] = byId
	}
	if _, taken := byId[partition.Id]; taken {
		return errors.Wrapf(storageErrors.ErrVersionConflict, "creating partition %s", partition.DocumentId())
	}
	byId[partition.Id] = clonePartition(partition)
	return nil
}

func (s *PartitionStore) LoadPartitions(ctx context.Context, project string) ([]*indexes.IndexPartition, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	partitions := make([]*indexes.IndexPartition, 0, len(s.partitions[project]))
	for _, p := range s.partitions[project] {
		partitions = append(partitions, clonePartition(p))
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i].Id < partitions[j].Id })
	return partitions, nil
}

func (s *PartitionStore) ListProjects(ctx context.Context) ([]string, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	projects := make([]string, 0, len(s.partitions))
	for project := range s.partitions {
		projects = append(projects, project)
	}
	sort.Strings(projects)
	return projects, nil
}

func clonePartition(p *indexes.IndexPartition) *indexes.IndexPartition {
	clone := *p
	clone.Samples = append([]string(nil), p.Samples...)
	clone.Files = append([]string(nil), p.Files...)
	return &clone
}

type annotationEntry struct {
	metadata *indexes.AnnotationMetadata
	version  indexes.DocumentVersion
}

// AnnotationStore keeps one versioned annotation document per project.
type AnnotationStore struct {
	mux     sync.Mutex
	entries map[string]annotationEntry
}

func NewAnnotationStore() *AnnotationStore {
	return &AnnotationStore{entries: map[string]annotationEntry{}}
}

func (s *AnnotationStore) LoadAnnotation(ctx context.Context, project string) (*indexes.AnnotationMetadata, indexes.DocumentVersion, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	entry, ok := s.entries[project]
	if !ok {
		return &indexes.AnnotationMetadata{
			Project: project,
			Saved:   []*indexes.AnnotationRecord{},
		}, indexes.NewDocument, nil
	}
	return entry.metadata.Clone(), entry.version, nil
}

func (s *AnnotationStore) SaveAnnotation(ctx context.Context, metadata *indexes.AnnotationMetadata, expected indexes.DocumentVersion) (indexes.DocumentVersion, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	current := indexes.NewDocument
	if entry, ok := s.entries[metadata.Project]; ok {
		current = entry.version
	}
	if current != expected {
		return expected, errors.Wrapf(storageErrors.ErrVersionConflict, "saving annotation metadata of project %s", metadata.Project)
	}

	next := indexes.DocumentVersion{SeqNo: current.SeqNo + 1, PrimaryTerm: 1}
	s.entries[metadata.Project] = annotationEntry{metadata: metadata.Clone(), version: next}
	return next, nil
}

// StoredVariant is a row of the in-memory primary store.
type StoredVariant struct {
	Columns map[string]interface{}
	Samples []models.SampleEntry
}

// MutationSink keeps one row per project and row key. Columns are
// overwritten, sample entries merged by study and sample id.
type MutationSink struct {
	mux     sync.RWMutex
	rows    map[string]*StoredVariant
	applied int
}

func NewMutationSink() *MutationSink {
	return &MutationSink{rows: map[string]*StoredVariant{}}
}

func (s *MutationSink) Apply(ctx context.Context, mutations []*models.StorageMutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mux.Lock()
	defer s.mux.Unlock()
	for _, m := range mutations {
		row, ok := s.rows[m.DocumentId()]
		if !ok {
			row = &StoredVariant{Columns: map[string]interface{}{}}
			s.rows[m.DocumentId()] = row
		}
		for k, v := range m.Columns {
			row.Columns[k] = v
		}
		row.Samples = models.MergeSampleEntries(row.Samples, m.Samples)
		s.applied++
	}
	return nil
}

func (s *MutationSink) Close(ctx context.Context) error {
	return nil
}

// Row returns a copy of the row stored under rowKey in project.
func (s *MutationSink) Row(project string, rowKey []byte) (StoredVariant, bool) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	key := (&models.StorageMutation{Project: project, RowKey: rowKey}).DocumentId()
	row, ok := s.rows[key]
	if !ok {
		return StoredVariant{}, false
	}
	columns := make(map[string]interface{}, len(row.Columns))
	for k, v := range row.Columns {
		columns[k] = v
	}
	return StoredVariant{
		Columns: columns,
		Samples: append([]models.SampleEntry(nil), row.Samples...),
	}, true
}

// Len returns the number of distinct rows.
func (s *MutationSink) Len() int {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return len(s.rows)
}

// Applied returns the number of mutations applied, rewrites included.
func (s *MutationSink) Applied() int {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.applied
}
