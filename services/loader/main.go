package loaderService

import (
	"gohan/storage/models"
	variantType "gohan/storage/models/constants/variant-type"
	"gohan/storage/models/ingest"

	"github.com/labstack/gommon/log"
)

// IncrementalLoader turns batches of variant records into storage mutations,
// skipping reference blocks and variants it has loaded recently.
// One loader serves one worker; it is not safe for concurrent use.
type IncrementalLoader struct {
	encoder Encoder
	loaded  *RecentlyLoadedSet
	stats   ingest.LoadStats
	logger  *log.Logger
}

func NewIncrementalLoader(encoder Encoder, capacity int, logger *log.Logger) *IncrementalLoader {
	return &IncrementalLoader{
		encoder: encoder,
		loaded:  NewRecentlyLoadedSet(capacity),
		logger:  logger,
	}
}

// LoadBatch returns the mutations for the records not loaded yet.
// Records are keyed by the text form of their coordinate.
func (l *IncrementalLoader) LoadBatch(records []*models.VariantRecord) []*models.StorageMutation {
	mutations := make([]*models.StorageMutation, 0, len(records))

	for _, record := range records {
		if record == nil {
			continue
		}
		key := record.Coordinate.String()

		if !variantType.IsTarget(record.Type) {
			if !l.loaded.Contains(key) {
				l.stats.SkippedRefBlock++
			}
			l.stats.SkippedAll++
		} else {
			if l.loaded.Contains(key) {
				l.stats.SkippedRefVariants++
			} else if mutation := l.encoder.Encode(record); mutation == nil {
				l.stats.SkippedRefVariants++
			} else {
				mutations = append(mutations, mutation)
				l.stats.LoadedVariants++
			}
			l.stats.LoadedVariantsAll++
		}

		l.loaded.Add(key)
	}

	l.logger.Debugf("Loaded batch of %d records into %d mutations", len(records), len(mutations))
	return mutations
}

// Stats returns the counters accumulated since the loader was created.
func (l *IncrementalLoader) Stats() ingest.LoadStats {
	return l.stats
}
