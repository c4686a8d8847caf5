package partitionsService

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"gohan/storage/models"
	qp "gohan/storage/models/constants/query-param"
	"gohan/storage/models/indexes"
	"gohan/storage/models/query"
	storageErrors "gohan/storage/models/storage-errors"
	memRepo "gohan/storage/repositories/memory"
	"gohan/storage/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	*memRepo.PartitionStore
	fail error
}

func (s *failingStore) CreatePartition(ctx context.Context, partition *indexes.IndexPartition) error {
	if s.fail != nil {
		return s.fail
	}
	return s.PartitionStore.CreatePartition(ctx, partition)
}

func newRegistry(store *memRepo.PartitionStore) *CoverageRegistry {
	return NewCoverageRegistry("p", "gohan", store, utils.NewWriterLogger("partitions", io.Discard))
}

func TestRegisterPartition(t *testing.T) {
	ctx := context.Background()

	t.Run("should allocate increasing ids and default collection names", func(t *testing.T) {
		r := newRegistry(memRepo.NewPartitionStore())

		p1, err := r.RegisterPartition(ctx, "", []string{"s1", "s2", "s1"}, []string{"f1"})
		require.NoError(t, err)
		assert.Equal(t, 1, p1.Id)
		assert.Equal(t, "gohan_p_1", p1.CollectionName)
		assert.Equal(t, []string{"s1", "s2"}, p1.Samples)

		p2, err := r.RegisterPartition(ctx, "custom", []string{"s3"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, p2.Id)
		assert.Equal(t, "custom", p2.CollectionName)

		assert.Equal(t, 1, r.LookupPartitionForSample("s2").Id)
		assert.Equal(t, 1, r.LookupPartitionForFile("f1").Id)
		assert.Nil(t, r.LookupPartitionForSample("s9"))
		assert.Nil(t, r.LookupPartitionForFile("f9"))
	})

	t.Run("should reject empty sample sets", func(t *testing.T) {
		r := newRegistry(memRepo.NewPartitionStore())
		_, err := r.RegisterPartition(ctx, "", []string{" "}, []string{"f1"})
		assert.True(t, errors.Is(err, storageErrors.ErrInvalidArgument))
		assert.Empty(t, r.Snapshot().Partitions())
	})

	t.Run("should reject a partially overlapping sample set", func(t *testing.T) {
		store := memRepo.NewPartitionStore()
		r := newRegistry(store)
		_, err := r.RegisterPartition(ctx, "", []string{"s1", "s2"}, []string{"f1"})
		require.NoError(t, err)

		_, err = r.RegisterPartition(ctx, "", []string{"s4", "s2", "s3", "s1"}, []string{"f2"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, storageErrors.ErrAlreadyIndexed))

		var indexed *storageErrors.AlreadyIndexedError
		require.True(t, errors.As(err, &indexed))
		assert.Equal(t, []string{"s1", "s2"}, indexed.Samples)

		// nothing changed
		assert.Len(t, r.Snapshot().Partitions(), 1)
		assert.Nil(t, r.LookupPartitionForSample("s4"))
		stored, _ := store.LoadPartitions(ctx, "p")
		assert.Len(t, stored, 1)
	})

	t.Run("should keep state untouched when the store fails", func(t *testing.T) {
		store := &failingStore{PartitionStore: memRepo.NewPartitionStore(), fail: errors.New("store down")}
		r := NewCoverageRegistry("p", "gohan", store, utils.NewWriterLogger("partitions", io.Discard))

		_, err := r.RegisterPartition(ctx, "", []string{"s1"}, nil)
		assert.EqualError(t, err, "store down")
		assert.Nil(t, r.LookupPartitionForSample("s1"))

		store.fail = nil
		p, err := r.RegisterPartition(ctx, "", []string{"s1"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, p.Id)
	})

	t.Run("should let exactly one of many overlapping registrations win", func(t *testing.T) {
		r := newRegistry(memRepo.NewPartitionStore())

		const workers = 16
		var (
			wg        sync.WaitGroup
			mux       sync.Mutex
			succeeded int
			rejected  int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				// every set shares "shared"
				_, err := r.RegisterPartition(ctx, "", []string{fmt.Sprintf("own-%d", i), "shared"}, nil)
				mux.Lock()
				defer mux.Unlock()
				if err == nil {
					succeeded++
				} else if errors.Is(err, storageErrors.ErrAlreadyIndexed) {
					rejected++
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, workers-1, rejected)
		assert.Len(t, r.Snapshot().Partitions(), 1)
	})

	t.Run("should keep partitions pairwise disjoint", func(t *testing.T) {
		r := newRegistry(memRepo.NewPartitionStore())
		requests := [][]string{{"a", "b"}, {"c"}, {"b", "d"}, {"d", "e"}, {"e"}, {"f", "a"}, {"g"}}
		for _, samples := range requests {
			r.RegisterPartition(ctx, "", samples, nil)
		}

		seen := map[string]int{}
		for _, p := range r.Snapshot().Partitions() {
			for _, s := range p.Samples {
				_, dup := seen[s]
				assert.False(t, dup, "sample %s covered twice", s)
				seen[s] = p.Id
			}
		}
		assert.Len(t, r.Snapshot().Partitions(), 4)
	})

	t.Run("should reload after losing a race to another process", func(t *testing.T) {
		store := memRepo.NewPartitionStore()
		mine := newRegistry(store)
		theirs := newRegistry(store)

		_, err := theirs.RegisterPartition(ctx, "", []string{"s1"}, nil)
		require.NoError(t, err)

		// mine has not seen partition 1 and allocates the same id
		_, err = mine.RegisterPartition(ctx, "", []string{"s2"}, nil)
		assert.True(t, errors.Is(err, storageErrors.ErrVersionConflict))
		assert.Equal(t, 1, mine.LookupPartitionForSample("s1").Id)
		assert.Nil(t, mine.LookupPartitionForSample("s2"))

		p, err := mine.RegisterPartition(ctx, "", []string{"s2"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, p.Id)
	})
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(memRepo.NewPartitionStore())
	_, err := r.RegisterPartition(ctx, "", []string{"s1"}, []string{"shared", "f1"})
	require.NoError(t, err)

	before := r.Snapshot()
	_, err = r.RegisterPartition(ctx, "", []string{"s2"}, []string{"shared"})
	require.NoError(t, err)

	t.Run("should not see later registrations", func(t *testing.T) {
		assert.Len(t, before.Partitions(), 1)
		assert.Nil(t, before.LookupPartitionForSample("s2"))
	})

	t.Run("should only resolve files owned by a single partition", func(t *testing.T) {
		assert.NotNil(t, before.LookupPartitionForFile("shared"))
		assert.Nil(t, r.LookupPartitionForFile("shared"))
		assert.Len(t, r.PartitionsForFile("shared"), 2)
		assert.Equal(t, 1, r.LookupPartitionForFile("f1").Id)
	})

	t.Run("should list indexed samples in registration order", func(t *testing.T) {
		assert.Equal(t, []string{"s1", "s2"}, r.Snapshot().IndexedSamples())
	})
}

func TestPartitionsService(t *testing.T) {
	ctx := context.Background()
	cfg := &models.Config{}
	cfg.Metadata.DbName = "gohan"
	store := memRepo.NewPartitionStore()

	require.NoError(t, store.CreatePartition(ctx, &indexes.IndexPartition{
		Id: 1, Project: "p", CollectionName: "gohan_p_1", Samples: []string{"s1", "s2"}, Files: []string{"f1"},
	}))

	ps := NewPartitionsService(cfg, store, utils.NewWriterLogger("partitions", io.Discard))

	t.Run("should load stored partitions lazily", func(t *testing.T) {
		assert.Empty(t, ps.LoadedProjects())
		partitions, err := ps.Partitions(ctx, "p")
		require.NoError(t, err)
		assert.Len(t, partitions, 1)
		assert.Equal(t, []string{"p"}, ps.LoadedProjects())
	})

	t.Run("should keep projects apart", func(t *testing.T) {
		p, err := ps.RegisterPartition(ctx, "q", "", []string{"s1"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "gohan_q_1", p.CollectionName)

		_, err = ps.RegisterPartition(ctx, "p", "", []string{"s1"}, nil)
		assert.True(t, errors.Is(err, storageErrors.ErrAlreadyIndexed))
	})

	t.Run("should route against the project coverage", func(t *testing.T) {
		target, err := ps.Route(ctx, "p", query.New().Append(qp.SAMPLE, "s1,s2"))
		require.NoError(t, err)
		assert.True(t, target.Resolved)
		assert.Equal(t, 1, target.PartitionId)

		target, err = ps.Route(ctx, "p", query.New().Append(qp.SAMPLE, "!s1"))
		require.NoError(t, err)
		assert.False(t, target.Resolved)
	})

	t.Run("should look up samples and files", func(t *testing.T) {
		p, err := ps.LookupPartitionForSample(ctx, "p", "s2")
		require.NoError(t, err)
		assert.Equal(t, 1, p.Id)

		p, err = ps.LookupPartitionForFile(ctx, "p", "f1")
		require.NoError(t, err)
		assert.Equal(t, 1, p.Id)
	})
}
