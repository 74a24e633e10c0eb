package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"library-backend/internal/config"
	"library-backend/internal/domains/loan/job"
	"library-backend/internal/shared"
	"library-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redisAddress string, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddress},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

func (s *Scheduler) RegisterJobs() error {
	return s.registerMarkLateLoansJob()
}

// The sweep runs often because it is cheap: a single UPDATE over
// overdue borrowed rows. Reads do not depend on it.
func (s *Scheduler) registerMarkLateLoansJob() error {
	payload, err := json.Marshal(job.MarkLateLoansPayload{})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeMarkLateLoans, payload)

	_, err = s.scheduler.Register(
		s.jobConfig.MarkLateLoansCron,
		task,
		asynq.Queue(shared.QueueLoans),
		asynq.MaxRetry(2),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil {
		logger.Error("failed to register MarkLateLoans job", err)
		return err
	}

	logger.Info("registered MarkLateLoans job", map[string]interface{}{
		"cron": s.jobConfig.MarkLateLoansCron,
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
