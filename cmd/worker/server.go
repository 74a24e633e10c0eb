package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	loanJob "library-backend/internal/domains/loan/job"
	"library-backend/internal/shared"
	"library-backend/pkg/container"
)

type asynqServer struct {
	*asynq.Server
}

func setupAsynqServer(c *container.Container) *asynqServer {
	mux := asynq.NewServeMux()

	markLate := loanJob.NewMarkLateLoansHandler(c.LoanService)
	mux.HandleFunc(shared.TypeMarkLateLoans, markLate.ProcessTask)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: c.Config.Redis.Host},
		asynq.Config{
			Queues: map[string]int{
				shared.QueueLoans:   10,
				shared.QueueDefault: 5,
			},
			Concurrency: 10,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("task failed, type=%s: %v", task.Type(), err)
			}),
		},
	)

	go func() {
		log.Println("worker starting...")
		if err := srv.Run(mux); err != nil {
			log.Fatalf("worker failed: %v", err)
		}
	}()

	return &asynqServer{Server: srv}
}

func (s *asynqServer) Shutdown() {
	s.Server.Shutdown()
}
