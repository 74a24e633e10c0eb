package job

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"library-backend/internal/domains/loan/service"
	"library-backend/pkg/logger"
)

// MarkLateLoansPayload is empty; the sweep cutoff is the processing
// time.
type MarkLateLoansPayload struct{}

// MarkLateLoansHandler persists the late transition for overdue
// borrowed loans. Reads classify overdue loans as late on the fly, so
// this sweep only brings the stored state in line; missing a run never
// shows a client a stale status.
type MarkLateLoansHandler struct {
	loanService service.ServiceInterface
}

func NewMarkLateLoansHandler(loanService service.ServiceInterface) *MarkLateLoansHandler {
	return &MarkLateLoansHandler{loanService: loanService}
}

func (h *MarkLateLoansHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload MarkLateLoansPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Error("invalid mark late payload", err)
		return err
	}

	marked, err := h.loanService.MarkLateLoans(ctx)
	if err != nil {
		logger.Error("mark late loans sweep failed", err)
		return err
	}

	log.Info().
		Int64("marked", marked).
		Msg("mark late loans sweep finished")

	return nil
}
