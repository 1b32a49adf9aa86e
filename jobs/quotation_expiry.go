package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// TaskQuotationExpirySweep flips SENT quotations past their expiry date to
// EXPIRED. Acceptance checks expiry on its own; the sweep keeps listings and
// the duplicate-active rule honest between accepts.
const TaskQuotationExpirySweep = "quotations:expire"

// CronQuotationExpirySweep runs the sweep at the top of every hour.
const CronQuotationExpirySweep = "0 * * * *"

// QuotationExpirer is implemented by the quotations service.
type QuotationExpirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// NewQuotationExpirySweepTask constructs the sweep task. It carries no
// payload.
func NewQuotationExpirySweepTask() *asynq.Task {
	return asynq.NewTask(TaskQuotationExpirySweep, nil)
}

// NewQuotationExpiryHandler returns the Asynq handler for the sweep.
func NewQuotationExpiryHandler(expirer QuotationExpirer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		flipped, err := expirer.ExpireOverdue(ctx)
		if err != nil {
			logger.Error("quotation expiry sweep", slog.Any("error", err))
			return err
		}
		if flipped > 0 {
			logger.Info("quotation expiry sweep", slog.Int64("expired", flipped))
		}
		return nil
	}
}
