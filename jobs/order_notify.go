package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/hoamai/storefront/internal/jobs"
	"github.com/hoamai/storefront/internal/notify"
)

const notifyChannel = "webhook"

// Sender delivers a notification payload.
type Sender interface {
	Enabled() bool
	Send(ctx context.Context, payload any) error
}

// OrderNotifyJob posts placed orders to the shop webhook.
type OrderNotifyJob struct {
	Sender  Sender
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewOrderNotifyJob initialises the notify handler.
func NewOrderNotifyJob(sender Sender, logger *slog.Logger, metrics *jobmetrics.Metrics) *OrderNotifyJob {
	return &OrderNotifyJob{Sender: sender, Logger: logger, Metrics: metrics}
}

// Handle delivers one order notification. Rejections by the webhook are not
// retried.
func (j *OrderNotifyJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil {
		return errors.New("order notify: handler not configured")
	}
	var payload OrderNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskOrderNotify)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("order_id", payload.OrderID))
	if j.Sender == nil || !j.Sender.Enabled() {
		logger.Info("order notification skipped, webhook not configured")
		j.Metrics.ObserveDelivery(notifyChannel, "skipped")
		return nil
	}

	if err := j.Sender.Send(ctx, payload); err != nil {
		if notify.Permanent(err) {
			logger.Error("order notification rejected", slog.Any("error", err))
			j.Metrics.ObserveDelivery(notifyChannel, "rejected")
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		logger.Warn("order notification failed", slog.Any("error", err))
		j.Metrics.ObserveDelivery(notifyChannel, "failed")
		return err
	}
	logger.Info("order notification delivered", slog.Int64("total_price", payload.TotalPrice))
	j.Metrics.ObserveDelivery(notifyChannel, "delivered")
	return nil
}

func (j *OrderNotifyJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
