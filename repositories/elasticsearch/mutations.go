package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gohan/storage/models"

	es7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esutil"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
)

// mergeVariantScript overwrites the row level columns of a variant document
// and replaces the sample entries sharing a study and sample id with the
// incoming ones, keeping every other entry.
const mergeVariantScript = `
for (def column : params.columns.entrySet()) {
	ctx._source[column.getKey()] = column.getValue();
}
def kept = new ArrayList();
if (ctx._source.samples != null) {
	for (def stored : ctx._source.samples) {
		boolean replaced = false;
		for (def incoming : params.samples) {
			if (stored.study == incoming.study && stored.id == incoming.id) {
				replaced = true;
			}
		}
		if (!replaced) {
			kept.add(stored);
		}
	}
}
kept.addAll(params.samples);
ctx._source.samples = kept;
`

// BulkMutationSink writes storage mutations as variant documents, one per
// project and row key. Items are scripted upserts, so samples loaded from
// other files or studies survive and re-applying a mutation is harmless.
type BulkMutationSink struct {
	indexer esutil.BulkIndexer
	index   string
	logger  *log.Logger

	applied uint64
	failed  uint64
}

func NewBulkMutationSink(es *es7.Client, index string, numWorkers int, logger *log.Logger) (*BulkMutationSink, error) {
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:         index,
		Client:        es,
		NumWorkers:    numWorkers,
		FlushInterval: time.Second,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating bulk indexer")
	}
	return &BulkMutationSink{indexer: bi, index: index, logger: logger}, nil
}

// Apply queues every mutation and waits until each of them
// has been acknowledged by elasticsearch.
func (s *BulkMutationSink) Apply(ctx context.Context, mutations []*models.StorageMutation) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures int
		firstErr error
	)

	for _, m := range mutations {
		data, err := json.Marshal(map[string]interface{}{
			"scripted_upsert": true,
			"script": map[string]interface{}{
				"lang":   "painless",
				"source": mergeVariantScript,
				"params": map[string]interface{}{
					"columns": m.Columns,
					"samples": m.Samples,
				},
			},
			"upsert": map[string]interface{}{},
		})
		if err != nil {
			wg.Wait()
			return errors.Wrapf(err, "encoding mutation %s", m.DocumentId())
		}

		wg.Add(1)
		err = s.indexer.Add(ctx, esutil.BulkIndexerItem{
			Action:     "update",
			DocumentID: m.DocumentId(),
			Body:       bytes.NewReader(data),

			OnSuccess: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem) {
				defer wg.Done()
				atomic.AddUint64(&s.applied, 1)
			},

			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				defer wg.Done()
				atomic.AddUint64(&s.failed, 1)
				if err == nil {
					err = fmt.Errorf("%s: %s", res.Error.Type, res.Error.Reason)
				}
				mu.Lock()
				failures++
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				s.logger.Warnf("Failed to apply mutation %s: %s", item.DocumentID, err)
			},
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return errors.Wrapf(err, "queueing mutation %s", m.DocumentId())
		}
	}

	wg.Wait()

	if failures > 0 {
		return errors.Wrapf(firstErr, "%d of %d mutations failed on %s", failures, len(mutations), s.index)
	}
	return nil
}

func (s *BulkMutationSink) Close(ctx context.Context) error {
	if err := s.indexer.Close(ctx); err != nil {
		return errors.Wrap(err, "closing bulk indexer")
	}
	stats := s.indexer.Stats()
	s.logger.Infof("Bulk indexer closed: %d added, %d flushed, %d failed", stats.NumAdded, stats.NumFlushed, stats.NumFailed)
	return nil
}

// Stats returns how many mutations were acknowledged and how many failed.
func (s *BulkMutationSink) Stats() (applied uint64, failed uint64) {
	return atomic.LoadUint64(&s.applied), atomic.LoadUint64(&s.failed)
}
