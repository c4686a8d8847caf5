package partitionsService

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"gohan/storage/models/indexes"
	storageErrors "gohan/storage/models/storage-errors"
	"gohan/storage/repositories"
	"gohan/storage/utils"

	linq "github.com/ahmetb/go-linq"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
)

type (
	// RegistrySnapshot is an immutable view of the partitions of a project.
	// Partitions reachable from a snapshot must not be modified.
	RegistrySnapshot struct {
		project    string
		partitions []*indexes.IndexPartition
		samples    []string
		sampleIdx  map[string]*indexes.IndexPartition
		fileIdx    map[string][]*indexes.IndexPartition
		maxId      int
	}

	// CoverageRegistry tracks which samples of a project have been copied
	// into a search partition. Writers serialise on the registry mutex,
	// readers work on the last published snapshot.
	CoverageRegistry struct {
		project string
		dbName  string
		store   repositories.PartitionStore
		logger  *log.Logger

		writeMux sync.Mutex
		current  atomic.Pointer[RegistrySnapshot]
	}
)

func newSnapshot(project string, partitions []*indexes.IndexPartition) *RegistrySnapshot {
	s := &RegistrySnapshot{
		project:    project,
		partitions: make([]*indexes.IndexPartition, 0, len(partitions)),
		sampleIdx:  map[string]*indexes.IndexPartition{},
		fileIdx:    map[string][]*indexes.IndexPartition{},
	}
	for _, p := range partitions {
		s.partitions = append(s.partitions, p)
		for _, sample := range p.Samples {
			if _, seen := s.sampleIdx[sample]; !seen {
				s.samples = append(s.samples, sample)
			}
			s.sampleIdx[sample] = p
		}
		for _, file := range p.Files {
			s.fileIdx[file] = append(s.fileIdx[file], p)
		}
		if p.Id > s.maxId {
			s.maxId = p.Id
		}
	}
	sort.Slice(s.partitions, func(i, j int) bool { return s.partitions[i].Id < s.partitions[j].Id })
	return s
}

func (s *RegistrySnapshot) with(p *indexes.IndexPartition) *RegistrySnapshot {
	partitions := make([]*indexes.IndexPartition, 0, len(s.partitions)+1)
	partitions = append(partitions, s.partitions...)
	return newSnapshot(s.project, append(partitions, p))
}

func (s *RegistrySnapshot) Project() string { return s.project }

// Partitions returns the partitions ordered by id.
func (s *RegistrySnapshot) Partitions() []*indexes.IndexPartition {
	return append([]*indexes.IndexPartition(nil), s.partitions...)
}

func (s *RegistrySnapshot) LookupPartitionForSample(sampleId string) *indexes.IndexPartition {
	return s.sampleIdx[sampleId]
}

// LookupPartitionForFile returns the partition owning fileId, or nil
// when the file is not covered or is split across several partitions.
func (s *RegistrySnapshot) LookupPartitionForFile(fileId string) *indexes.IndexPartition {
	owners := s.fileIdx[fileId]
	if len(owners) != 1 {
		return nil
	}
	return owners[0]
}

func (s *RegistrySnapshot) PartitionsForFile(fileId string) []*indexes.IndexPartition {
	return append([]*indexes.IndexPartition(nil), s.fileIdx[fileId]...)
}

// IndexedSamples returns every covered sample, in registration order.
func (s *RegistrySnapshot) IndexedSamples() []string {
	return append([]string(nil), s.samples...)
}

func NewCoverageRegistry(project string, dbName string, store repositories.PartitionStore, logger *log.Logger) *CoverageRegistry {
	r := &CoverageRegistry{
		project: project,
		dbName:  dbName,
		store:   store,
		logger:  logger,
	}
	r.current.Store(newSnapshot(project, nil))
	return r
}

func (r *CoverageRegistry) Project() string { return r.project }

// Snapshot returns the last published state; it never blocks on writers.
func (r *CoverageRegistry) Snapshot() *RegistrySnapshot {
	return r.current.Load()
}

func (r *CoverageRegistry) LookupPartitionForSample(sampleId string) *indexes.IndexPartition {
	return r.Snapshot().LookupPartitionForSample(sampleId)
}

func (r *CoverageRegistry) LookupPartitionForFile(fileId string) *indexes.IndexPartition {
	return r.Snapshot().LookupPartitionForFile(fileId)
}

func (r *CoverageRegistry) PartitionsForFile(fileId string) []*indexes.IndexPartition {
	return r.Snapshot().PartitionsForFile(fileId)
}

// Reload replaces the published state with what the store holds.
func (r *CoverageRegistry) Reload(ctx context.Context) error {
	r.writeMux.Lock()
	defer r.writeMux.Unlock()
	return r.reload(ctx)
}

func (r *CoverageRegistry) reload(ctx context.Context) error {
	partitions, err := r.store.LoadPartitions(ctx, r.project)
	if err != nil {
		return err
	}
	r.current.Store(newSnapshot(r.project, partitions))
	r.logger.Debugf("Loaded %d partitions of project %s", len(partitions), r.project)
	return nil
}

// RegisterPartition records a new partition covering sampleIds and fileIds.
// It fails with an AlreadyIndexedError when any of the samples is covered
// already, in which case nothing is stored.
func (r *CoverageRegistry) RegisterPartition(ctx context.Context, collectionName string, sampleIds []string, fileIds []string) (*indexes.IndexPartition, error) {
	samples := utils.UniqueStrings(sampleIds)
	if len(samples) == 0 {
		return nil, errors.Wrap(storageErrors.ErrInvalidArgument, "a partition needs at least one sample")
	}
	files := utils.UniqueStrings(fileIds)

	r.writeMux.Lock()
	defer r.writeMux.Unlock()

	latest := r.current.Load()

	var overlap []string
	linq.From(samples).
		Intersect(linq.From(latest.samples)).
		ToSlice(&overlap)
	if len(overlap) > 0 {
		sort.Strings(overlap)
		return nil, &storageErrors.AlreadyIndexedError{Project: r.project, Samples: overlap}
	}

	id := latest.maxId + 1
	if collectionName == "" {
		collectionName = indexes.BuildCollectionName(r.dbName, r.project, id)
	}
	partition := &indexes.IndexPartition{
		Id:             id,
		Project:        r.project,
		CollectionName: collectionName,
		Samples:        samples,
		Files:          files,
		CreatedAt:      time.Now().UTC(),
	}

	if err := r.store.CreatePartition(ctx, partition); err != nil {
		if errors.Is(err, storageErrors.ErrVersionConflict) {
			// another writer registered this id; pick up its state
			r.logger.Warnf("Partition %s was registered concurrently, reloading project %s", partition.DocumentId(), r.project)
			if reloadErr := r.reload(ctx); reloadErr != nil {
				r.logger.Errorf("Failed to reload project %s: %s", r.project, reloadErr)
			}
		}
		return nil, err
	}

	r.current.Store(latest.with(partition))
	r.logger.Infof("Registered partition %d (%s) of project %s with %d samples", id, collectionName, r.project, len(samples))

	return partition, nil
}

func (r *CoverageRegistry) String() string {
	s := r.Snapshot()
	return fmt.Sprintf("CoverageRegistry{project: %s, partitions: %d}", r.project, len(s.partitions))
}
