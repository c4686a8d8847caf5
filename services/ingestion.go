package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gohan/storage/models"
	"gohan/storage/models/ingest"
	"gohan/storage/repositories"
	loaderService "gohan/storage/services/loader"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type (
	// IngestionService runs variant load sessions. Each session splits its
	// records into batches handled by a pool of workers, every worker owning
	// its own IncrementalLoader.
	IngestionService struct {
		Config *models.Config

		sink    repositories.MutationSink
		codec   loaderService.RowKeyCodec
		limiter *rate.Limiter
		logger  *log.Logger

		LoadRequestMap    map[string]*ingest.LoadRequest
		LoadRequestMapMux sync.RWMutex

		statsMux sync.Mutex
		stats    ingest.LoadStats
	}
)

func NewIngestionService(cfg *models.Config, sink repositories.MutationSink, codec loaderService.RowKeyCodec, logger *log.Logger) *IngestionService {
	if codec == nil {
		codec = loaderService.BinaryRowKeyCodec{}
	}

	limit := rate.Inf
	burst := cfg.Ingestion.BatchSize
	if cfg.Ingestion.MaxMutationsPerSecond > 0 {
		limit = rate.Limit(cfg.Ingestion.MaxMutationsPerSecond)
		if int(cfg.Ingestion.MaxMutationsPerSecond) > burst {
			burst = int(cfg.Ingestion.MaxMutationsPerSecond)
		}
	}
	if burst < 1 {
		burst = 1
	}

	return &IngestionService{
		Config:         cfg,
		sink:           sink,
		codec:          codec,
		limiter:        rate.NewLimiter(limit, burst),
		logger:         logger,
		LoadRequestMap: map[string]*ingest.LoadRequest{},
	}
}

// Submit queues a load of records and runs it in the background.
func (i *IngestionService) Submit(project string, records []*models.VariantRecord) *ingest.LoadRequest {
	req := i.newRequest(project, len(records))

	go func() {
		if err := i.Run(context.Background(), req.Id.String(), records); err != nil {
			i.logger.Errorf("Load request %s failed: %s", req.Id, err)
		}
	}()

	return req
}

// Load runs a load of records and waits for it to finish.
func (i *IngestionService) Load(ctx context.Context, project string, records []*models.VariantRecord) (*ingest.LoadRequest, error) {
	req := i.newRequest(project, len(records))
	err := i.Run(ctx, req.Id.String(), records)
	return i.GetRequest(req.Id.String()), err
}

func (i *IngestionService) newRequest(project string, recordCount int) *ingest.LoadRequest {
	now := time.Now()
	req := &ingest.LoadRequest{
		Id:          uuid.New(),
		Project:     project,
		RecordCount: recordCount,
		State:       ingest.Queued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	i.LoadRequestMapMux.Lock()
	i.LoadRequestMap[req.Id.String()] = req
	i.LoadRequestMapMux.Unlock()

	i.logger.Infof("Queueing load request %s of %d records for project %s", req.Id, recordCount, project)
	return i.GetRequest(req.Id.String())
}

// Run processes a queued request. Batches are handed to the workers in order;
// a failing batch cancels the remaining ones.
func (i *IngestionService) Run(ctx context.Context, requestId string, records []*models.VariantRecord) error {
	var project string
	i.updateRequest(requestId, func(r *ingest.LoadRequest) {
		r.State = ingest.Running
		project = r.Project
	})

	batchSize := i.Config.Ingestion.BatchSize
	if batchSize < 1 {
		batchSize = len(records) + 1
	}
	workers := i.Config.Ingestion.WorkerCount
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	batches := make(chan []*models.VariantRecord)

	g.Go(func() error {
		defer close(batches)
		for start := 0; start < len(records); start += batchSize {
			end := start + batchSize
			if end > len(records) {
				end = len(records)
			}
			select {
			case batches <- records[start:end]:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var (
		resultMux sync.Mutex
		stats     ingest.LoadStats
		applied   int
	)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			encoder := loaderService.NewVariantEncoder(project, i.codec, i.Config.Ingestion.IncludeReferenceData, i.logger)
			loader := loaderService.NewIncrementalLoader(encoder, i.Config.Ingestion.RecentlyLoadedCapacity, i.logger)

			workerApplied := 0
			defer func() {
				resultMux.Lock()
				stats.Add(loader.Stats())
				applied += workerApplied
				resultMux.Unlock()
			}()

			for batch := range batches {
				mutations := loader.LoadBatch(batch)
				if len(mutations) == 0 {
					continue
				}
				if err := i.apply(gctx, mutations); err != nil {
					return err
				}
				workerApplied += len(mutations)
			}
			return nil
		})
	}

	err := g.Wait()

	i.statsMux.Lock()
	i.stats.Add(stats)
	i.statsMux.Unlock()

	i.updateRequest(requestId, func(r *ingest.LoadRequest) {
		r.Stats = stats
		r.MutationsOut = applied
		if err != nil {
			r.State = ingest.Error
			r.Message = err.Error()
		} else {
			r.State = ingest.Done
			r.Message = fmt.Sprintf("loaded %d variants", stats.LoadedVariants)
		}
	})

	if err == nil {
		i.logger.Infof("Load request %s done: %d loaded, %d skipped", requestId, stats.LoadedVariants, stats.SkippedAll+stats.SkippedRefVariants)
	}
	return err
}

// apply hands mutations to the sink in chunks the limiter can grant at once.
func (i *IngestionService) apply(ctx context.Context, mutations []*models.StorageMutation) error {
	burst := i.limiter.Burst()
	for start := 0; start < len(mutations); start += burst {
		end := start + burst
		if end > len(mutations) {
			end = len(mutations)
		}
		if err := i.limiter.WaitN(ctx, end-start); err != nil {
			return err
		}
		if err := i.sink.Apply(ctx, mutations[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (i *IngestionService) updateRequest(requestId string, update func(*ingest.LoadRequest)) {
	i.LoadRequestMapMux.Lock()
	defer i.LoadRequestMapMux.Unlock()

	if r, ok := i.LoadRequestMap[requestId]; ok {
		update(r)
		r.UpdatedAt = time.Now()
	}
}

// GetRequest returns a copy of the request, or nil if it is unknown.
func (i *IngestionService) GetRequest(requestId string) *ingest.LoadRequest {
	i.LoadRequestMapMux.RLock()
	defer i.LoadRequestMapMux.RUnlock()

	r, ok := i.LoadRequestMap[requestId]
	if !ok {
		return nil
	}
	c := *r
	return &c
}

// GetRequests returns copies of every request, oldest first.
func (i *IngestionService) GetRequests() []*ingest.LoadRequest {
	i.LoadRequestMapMux.RLock()
	defer i.LoadRequestMapMux.RUnlock()

	requests := make([]*ingest.LoadRequest, 0, len(i.LoadRequestMap))
	for _, r := range i.LoadRequestMap {
		c := *r
		requests = append(requests, &c)
	}
	sort.Slice(requests, func(a, b int) bool { return requests[a].CreatedAt.Before(requests[b].CreatedAt) })
	return requests
}

// Stats returns the counters of every finished load.
func (i *IngestionService) Stats() ingest.LoadStats {
	i.statsMux.Lock()
	defer i.statsMux.Unlock()
	return i.stats
}
