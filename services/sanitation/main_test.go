package sanitation

import (
	"context"
	"io"
	"testing"

	"gohan/storage/models"
	"gohan/storage/models/indexes"
	memRepo "gohan/storage/repositories/memory"
	partitionsService "gohan/storage/services/partitions"
	"gohan/storage/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	cfg := &models.Config{}
	cfg.Metadata.DbName = "gohan"
	cfg.Metadata.SanitationInterval = "1h"
	logger := utils.NewWriterLogger("sanitation", io.Discard)

	store := memRepo.NewPartitionStore()
	ps := partitionsService.NewPartitionsService(cfg, store, logger)
	ss := NewSanitationService(cfg, store, ps, logger)

	_, err := ps.RegisterPartition(ctx, "p", "", []string{"s1"}, nil)
	require.NoError(t, err)

	t.Run("should leave registries in sync alone", func(t *testing.T) {
		reloaded, err := ss.Reconcile(ctx)
		require.NoError(t, err)
		assert.Empty(t, reloaded)
	})

	t.Run("should reload registries that missed a registration", func(t *testing.T) {
		// written by another instance
		require.NoError(t, store.CreatePartition(ctx, &indexes.IndexPartition{
			Id: 2, Project: "p", CollectionName: "gohan_p_2", Samples: []string{"s2"},
		}))

		p, _ := ps.LookupPartitionForSample(ctx, "p", "s2")
		assert.Nil(t, p)

		reloaded, err := ss.Reconcile(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"p"}, reloaded)

		p, _ = ps.LookupPartitionForSample(ctx, "p", "s2")
		require.NotNil(t, p)
		assert.Equal(t, 2, p.Id)
	})

	t.Run("should schedule itself", func(t *testing.T) {
		require.NoError(t, ss.Init())
		assert.True(t, ss.Initialized)
		ss.Stop()
		assert.False(t, ss.Initialized)
	})

	t.Run("should reject a malformed interval", func(t *testing.T) {
		bad := &models.Config{}
		bad.Metadata.SanitationInterval = "often"
		assert.Error(t, NewSanitationService(bad, store, ps, logger).Init())
	})
}
