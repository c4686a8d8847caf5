package sanitation

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/labstack/gommon/log"

	"gohan/storage/models"
	"gohan/storage/models/indexes"
	"gohan/storage/repositories"
	partitionsService "gohan/storage/services/partitions"
)

type (
	// SanitationService periodically checks the in-memory coverage
	// registries against the metadata store and reloads the ones
	// that drifted, i.e. after another instance registered a partition.
	SanitationService struct {
		Initialized bool
		Config      *models.Config

		store      repositories.PartitionStore
		partitions *partitionsService.PartitionsService
		logger     *log.Logger
		scheduler  *gocron.Scheduler
	}
)

func NewSanitationService(cfg *models.Config, store repositories.PartitionStore, partitions *partitionsService.PartitionsService, logger *log.Logger) *SanitationService {
	ss := &SanitationService{
		Initialized: false,
		Config:      cfg,
		store:       store,
		partitions:  partitions,
		logger:      logger,
	}

	return ss
}

func (ss *SanitationService) Init() error {
	// initialization if necessary
	if ss.Initialized {
		return nil
	}

	interval, err := time.ParseDuration(ss.Config.Metadata.SanitationInterval)
	if err != nil {
		return err
	}

	// setup cron job
	s := gocron.NewScheduler(time.UTC)
	_, err = s.Every(interval).Do(func() {
		ss.logger.Infof("Running coverage registry reconciliation..")

		reloaded, err := ss.Reconcile(context.Background())
		if err != nil {
			ss.logger.Errorf("Reconciliation failed: %s", err)
			return
		}
		ss.logger.Infof("Reconciliation done, %d registries reloaded", len(reloaded))
	})
	if err != nil {
		return err
	}

	// starting the execution of the scheduler
	s.StartAsync()

	ss.scheduler = s
	ss.Initialized = true
	return nil
}

func (ss *SanitationService) Stop() {
	if ss.scheduler != nil {
		ss.scheduler.Stop()
	}
	ss.Initialized = false
}

// Reconcile reloads every in-memory registry whose partitions differ from
// the stored ones, and returns the projects it reloaded.
func (ss *SanitationService) Reconcile(ctx context.Context) ([]string, error) {
	reloaded := []string{}

	for _, project := range ss.partitions.LoadedProjects() {
		registry, err := ss.partitions.Registry(ctx, project)
		if err != nil {
			return reloaded, err
		}

		stored, err := ss.store.LoadPartitions(ctx, project)
		if err != nil {
			return reloaded, err
		}

		if samePartitions(stored, registry.Snapshot().Partitions()) {
			continue
		}

		ss.logger.Warnf("Coverage registry of project %s is out of date, reloading", project)
		if err := registry.Reload(ctx); err != nil {
			return reloaded, err
		}
		reloaded = append(reloaded, project)
	}

	return reloaded, nil
}

func samePartitions(a []*indexes.IndexPartition, b []*indexes.IndexPartition) bool {
	if len(a) != len(b) {
		return false
	}
	ids := make(map[int]string, len(a))
	for _, p := range a {
		ids[p.Id] = p.CollectionName
	}
	for _, p := range b {
		if name, ok := ids[p.Id]; !ok || name != p.CollectionName {
			return false
		}
	}
	return true
}
