package memory

import (
	"context"
	"errors"
	"testing"

	"gohan/storage/models"
	"gohan/storage/models/indexes"
	storageErrors "gohan/storage/models/storage-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionStore(t *testing.T) {
	ctx := context.Background()
	store := NewPartitionStore()

	t.Run("should reject a taken partition id", func(t *testing.T) {
		require.NoError(t, store.CreatePartition(ctx, &indexes.IndexPartition{Id: 1, Project: "p", Samples: []string{"s1"}}))
		err := store.CreatePartition(ctx, &indexes.IndexPartition{Id: 1, Project: "p", Samples: []string{"s2"}})
		assert.True(t, errors.Is(err, storageErrors.ErrVersionConflict))
	})

	t.Run("should hand out copies", func(t *testing.T) {
		partitions, err := store.LoadPartitions(ctx, "p")
		require.NoError(t, err)
		require.Len(t, partitions, 1)
		partitions[0].Samples[0] = "changed"

		again, _ := store.LoadPartitions(ctx, "p")
		assert.Equal(t, "s1", again[0].Samples[0])
	})

	t.Run("should list projects", func(t *testing.T) {
		require.NoError(t, store.CreatePartition(ctx, &indexes.IndexPartition{Id: 1, Project: "a", Samples: []string{"s1"}}))
		projects, err := store.ListProjects(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "p"}, projects)
	})
}

func TestAnnotationStore(t *testing.T) {
	ctx := context.Background()
	store := NewAnnotationStore()

	metadata, version, err := store.LoadAnnotation(ctx, "p")
	require.NoError(t, err)
	assert.True(t, version.IsNew())

	metadata.Current = &indexes.AnnotationRecord{Id: -1, Name: indexes.LATEST}
	next, err := store.SaveAnnotation(ctx, metadata, version)
	require.NoError(t, err)

	t.Run("should fail on a stale version", func(t *testing.T) {
		_, err := store.SaveAnnotation(ctx, metadata, version)
		assert.True(t, errors.Is(err, storageErrors.ErrVersionConflict))
	})

	t.Run("should load what was saved", func(t *testing.T) {
		loaded, loadedVersion, err := store.LoadAnnotation(ctx, "p")
		require.NoError(t, err)
		assert.Equal(t, next, loadedVersion)
		assert.Equal(t, indexes.LATEST, loaded.Current.Name)
	})
}

func TestMutationSink(t *testing.T) {
	ctx := context.Background()

	entry := func(study string, sample string, gt string) models.SampleEntry {
		return models.SampleEntry{Study: study, FileId: study + ".vcf", Id: sample, Format: []string{"GT"}, Values: []string{gt}}
	}
	mutation := func(project string, samples ...models.SampleEntry) *models.StorageMutation {
		return &models.StorageMutation{
			Project: project,
			RowKey:  []byte{1, 2},
			Columns: map[string]interface{}{"_ss": "unknown"},
			Samples: samples,
		}
	}

	t.Run("should keep re-applied mutations idempotent", func(t *testing.T) {
		sink := NewMutationSink()
		m := mutation("p", entry("a", "s1", "0/1"))
		require.NoError(t, sink.Apply(ctx, []*models.StorageMutation{m}))
		require.NoError(t, sink.Apply(ctx, []*models.StorageMutation{m}))

		assert.Equal(t, 1, sink.Len())
		assert.Equal(t, 2, sink.Applied())
		row, ok := sink.Row("p", []byte{1, 2})
		require.True(t, ok)
		assert.Equal(t, "unknown", row.Columns["_ss"])
		assert.Len(t, row.Samples, 1)
	})

	t.Run("should merge samples of different studies sharing a row", func(t *testing.T) {
		sink := NewMutationSink()
		require.NoError(t, sink.Apply(ctx, []*models.StorageMutation{mutation("p", entry("a", "s1", "0/1"))}))
		require.NoError(t, sink.Apply(ctx, []*models.StorageMutation{mutation("p", entry("b", "s2", "1/1"))}))
		require.NoError(t, sink.Apply(ctx, []*models.StorageMutation{mutation("p", entry("a", "s1", "1/1"))}))

		row, ok := sink.Row("p", []byte{1, 2})
		require.True(t, ok)
		assert.Equal(t, []models.SampleEntry{entry("b", "s2", "1/1"), entry("a", "s1", "1/1")}, row.Samples)
	})

	t.Run("should keep projects apart", func(t *testing.T) {
		sink := NewMutationSink()
		require.NoError(t, sink.Apply(ctx, []*models.StorageMutation{mutation("p1", entry("a", "s1", "0/1"))}))
		require.NoError(t, sink.Apply(ctx, []*models.StorageMutation{mutation("p2", entry("a", "s1", "1/1"))}))

		assert.Equal(t, 2, sink.Len())
		row, ok := sink.Row("p1", []byte{1, 2})
		require.True(t, ok)
		assert.Equal(t, []string{"0/1"}, row.Samples[0].Values)
	})
}
