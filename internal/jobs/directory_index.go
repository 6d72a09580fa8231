package jobs

import (
	"context"
	"errors"
	"time"

	"creative_cure_backend/internal/config"
	"creative_cure_backend/internal/therapist"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DirectoryIndexBatchSize is the bulk size used by the scheduled reindex.
const DirectoryIndexBatchSize = 100

// IndexSyncer pushes the therapist directory into the search index.
type IndexSyncer interface {
	SyncIndex(ctx context.Context, batchSize int, refresh string) (therapist.IndexStats, error)
}

// DirectoryIndexJob periodically reindexes the therapist directory so that
// profile edits reach search.
type DirectoryIndexJob struct {
	syncer        IndexSyncer
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
	timeout       time.Duration
}

// NewDirectoryIndexJob creates a new DirectoryIndexJob.
func NewDirectoryIndexJob(syncer IndexSyncer, logger *zap.Logger, cfg *config.Config) *DirectoryIndexJob {
	cl := NewCronLogger(logger.Named("cron"))
	scheduler := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return &DirectoryIndexJob{
		syncer:        syncer,
		logger:        logger.Named("DirectoryIndexJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
		timeout:       5 * time.Minute,
	}
}

// SetupAndStart schedules and starts the cron job. An empty schedule or a
// disabled search index leaves the job off.
func (j *DirectoryIndexJob) SetupAndStart() error {
	jobSpec := j.cfg.DirectoryIndexJobSchedule
	if jobSpec == "" {
		j.logger.Warn("Directory index job schedule not defined (DIRECTORY_INDEX_JOB_SCHEDULE). Job will not run.")
		return nil
	}
	if j.cfg.ElasticsearchURL == "" {
		j.logger.Info("ELASTICSEARCH_URL not set, directory index job disabled")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule directory index job", zap.String("schedule", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Directory index job scheduled", zap.String("schedule", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

func (j *DirectoryIndexJob) runJob() {
	j.logger.Info("Starting directory index job run...")
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	stats, err := j.syncer.SyncIndex(ctx, DirectoryIndexBatchSize, "false")
	switch {
	case errors.Is(err, therapist.ErrSearchDisabled):
		j.logger.Warn("Directory index job ran without a search index")
	case err != nil:
		j.logger.Error("Directory index job run failed", zap.Int("indexed", stats.Indexed), zap.Int("failed", stats.Failed), zap.Error(err))
	default:
		j.logger.Info("Directory index job run completed", zap.Int("indexed", stats.Indexed))
	}
}

// Stop gracefully stops the cron scheduler.
func (j *DirectoryIndexJob) Stop() {
	if j.cronScheduler == nil {
		return
	}
	j.logger.Info("Stopping directory index job scheduler...")
	stopCtx := j.cronScheduler.Stop()
	select {
	case <-stopCtx.Done():
		j.logger.Info("Directory index job scheduler stopped gracefully.")
	case <-time.After(10 * time.Second):
		j.logger.Warn("Directory index job scheduler stop timed out.")
	}
}
