package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/easypmnt/liqpay-gateway/liqpay"
	"github.com/hibiken/asynq"
)

// Task names.
const (
	TaskCheckOrderStatus = "liqpay:check_order_status"
)

// Default deferred status check settings.
const (
	DefaultCheckDelay    = 30 * time.Second
	DefaultCheckMaxRetry = 10
)

// OrderPayload is the payload of the check order status task.
type OrderPayload struct {
	OrderID string `json:"order_id"`
}

type (
	// Worker is a task handler for deferred status checks.
	Worker struct {
		svc statusChecker
	}

	statusChecker interface {
		CheckStatus(ctx context.Context, orderID string) (Result, error)
	}

	// Enqueuer schedules deferred status checks.
	Enqueuer struct {
		client   taskEnqueuer
		delay    time.Duration
		maxRetry int
	}

	taskEnqueuer interface {
		EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	}
)

// NewWorker creates a new status check task handler.
func NewWorker(svc statusChecker) *Worker {
	return &Worker{svc: svc}
}

// Register registers task handlers.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskCheckOrderStatus, w.CheckOrderStatus)
}

// CheckOrderStatus polls the processor for the order status.
// The task is retried only while the processor is unreachable.
func (w *Worker) CheckOrderStatus(ctx context.Context, t *asynq.Task) error {
	var p OrderPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	if _, err := w.svc.CheckStatus(ctx, p.OrderID); err != nil {
		switch {
		case errors.Is(err, liqpay.ErrNetwork):
			return fmt.Errorf("failed to check order status: %w", err)
		case errors.Is(err, ErrPaymentNotConfirmed):
			return nil
		default:
			return fmt.Errorf("failed to check order status: %v: %w", err, asynq.SkipRetry)
		}
	}

	return nil
}

// NewCheckOrderStatusTask returns a task checking the status of the order.
func NewCheckOrderStatusTask(orderID string) (*asynq.Task, error) {
	payload, err := json.Marshal(OrderPayload{OrderID: orderID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TaskCheckOrderStatus, payload), nil
}

// NewEnqueuer creates a new enqueuer. Zero delay and maxRetry mean defaults.
func NewEnqueuer(client taskEnqueuer, delay time.Duration, maxRetry int) *Enqueuer {
	if delay <= 0 {
		delay = DefaultCheckDelay
	}
	if maxRetry <= 0 {
		maxRetry = DefaultCheckMaxRetry
	}
	return &Enqueuer{client: client, delay: delay, maxRetry: maxRetry}
}

// EnqueueStatusCheck schedules a status check of the order.
// A check already scheduled for the order is not duplicated.
func (e *Enqueuer) EnqueueStatusCheck(ctx context.Context, orderID string) error {
	task, err := NewCheckOrderStatusTask(orderID)
	if err != nil {
		return err
	}

	if _, err := e.client.EnqueueContext(ctx, task,
		asynq.ProcessIn(e.delay),
		asynq.MaxRetry(e.maxRetry),
		asynq.TaskID(TaskCheckOrderStatus+":"+orderID),
	); err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("failed to enqueue status check: %w", err)
	}

	return nil
}
