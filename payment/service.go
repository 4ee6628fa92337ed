package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/easypmnt/liqpay-gateway/internal/locker"
	"github.com/easypmnt/liqpay-gateway/internal/metrics"
	"github.com/easypmnt/liqpay-gateway/liqpay"
	"github.com/easypmnt/liqpay-gateway/repository"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

type (
	// Service drives LiqPay payments of platform orders:
	// it builds checkout redirects, handles notifications and reconciles order state.
	Service struct {
		repo   orderRepository
		lp     liqpayClient
		locker orderLocker
		cfg    Config
		log    log.Logger
	}

	// ServiceOption is the type for service options that can be passed to NewService function.
	ServiceOption func(*Service)

	orderRepository interface {
		GetOrder(ctx context.Context, orderID string) (repository.Order, error)
		WithOrderTx(ctx context.Context, orderID string, fn repository.TxFunc) error
	}

	liqpayClient interface {
		CheckoutLink(params interface{}) (string, error)
		CheckoutForm(params interface{}) (liqpay.CheckoutForm, error)
		Status(ctx context.Context, orderID string) (*liqpay.Response, error)
		Verify(data, signature string) bool
	}

	orderLocker interface {
		Lock(ctx context.Context, key string) (func(), error)
	}
)

// NewService creates a new payment service.
func NewService(repo orderRepository, lp liqpayClient, cfg Config, opts ...ServiceOption) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		repo:   repo,
		lp:     lp,
		locker: locker.NewLocal(),
		cfg:    cfg,
		log:    log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// BuildPaymentRedirect returns the hosted checkout URL the customer's browser is redirected to.
func (s *Service) BuildPaymentRedirect(ctx context.Context, orderID string) (string, error) {
	req, err := s.paymentRequest(ctx, orderID)
	if err != nil {
		return "", err
	}

	link, err := s.lp.CheckoutLink(req)
	if err != nil {
		return "", fmt.Errorf("failed to build checkout link: %w", err)
	}

	level.Debug(s.log).Log("msg", "checkout link built", "order_id", orderID)

	return link, nil
}

// BuildPaymentForm returns the signed form fields to post to the hosted checkout page.
func (s *Service) BuildPaymentForm(ctx context.Context, orderID string) (liqpay.CheckoutForm, error) {
	req, err := s.paymentRequest(ctx, orderID)
	if err != nil {
		return liqpay.CheckoutForm{}, err
	}

	form, err := s.lp.CheckoutForm(req)
	if err != nil {
		return liqpay.CheckoutForm{}, fmt.Errorf("failed to build checkout form: %w", err)
	}

	return form, nil
}

func (s *Service) paymentRequest(ctx context.Context, orderID string) (liqpay.PaymentRequest, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return liqpay.PaymentRequest{}, err
	}
	if order.IsPaymentComplete() {
		return liqpay.PaymentRequest{}, fmt.Errorf("%w: %s", ErrOrderAlreadyPaid, orderID)
	}

	req := liqpay.PaymentRequest{
		Version:     liqpay.Version,
		Action:      liqpay.ActionPay,
		Amount:      order.Total,
		Currency:    order.Currency,
		Description: s.cfg.description(order.ID),
		OrderID:     order.ID,
		Email:       order.Email,
		ResultURL:   s.cfg.resultURL(order.ID),
		ServerURL:   s.cfg.ServerURL,
		Language:    s.cfg.Language,
	}
	if s.cfg.RROEnabled {
		req.RROInfo = s.rroInfo(order)
	}

	if err := req.Validate(); err != nil {
		return liqpay.PaymentRequest{}, err
	}

	return req, nil
}

// rroInfo returns the receipt items of the order, nil when no item can be reported.
func (s *Service) rroInfo(order repository.Order) *liqpay.RROInfo {
	items := make([]liqpay.RROItem, 0, len(order.Items))
	for _, item := range order.Items {
		id := item.RROID.String
		if !item.RROID.Valid || id == "" {
			if !s.cfg.RROFallbackToProductID {
				continue
			}
			id = item.ProductID
		}
		items = append(items, liqpay.RROItem{
			Amount: item.Quantity,
			Price:  item.Price,
			Cost:   item.Total,
			ID:     id,
		})
	}
	if len(items) == 0 {
		return nil
	}

	info := &liqpay.RROInfo{Items: items}
	if order.Email != "" {
		info.DeliveryEmails = []string{order.Email}
	}
	return info
}

// HandleNotification verifies an inbound processor callback and reconciles the order.
// Nothing in data is trusted before the signature is verified.
func (s *Service) HandleNotification(ctx context.Context, data, signature string) (Result, error) {
	if data == "" || signature == "" {
		metrics.InvalidNotifications.Inc()
		return Result{}, fmt.Errorf("%w: data and signature are required", ErrInvalidNotification)
	}

	n, err := liqpay.DecodeNotification(data)
	if err != nil {
		metrics.InvalidNotifications.Inc()
		level.Info(s.log).Log("msg", "malformed notification", "event", "invalid_notification", "error", err)
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidNotification, err)
	}

	if !s.lp.Verify(data, signature) {
		metrics.SignatureMismatches.Inc()
		level.Warn(s.log).Log(
			"msg", "notification signature mismatch",
			"event", "signature_mismatch",
			"claimed_order_id", n.OrderID.String(),
		)
		level.Debug(s.log).Log("msg", "rejected notification", "data", data)
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidNotification, liqpay.ErrInvalidSignature)
	}

	res := Result{OrderID: n.OrderID.String(), Status: n.Status}
	if res.OrderID == "" || res.Status == "" {
		metrics.InvalidNotifications.Inc()
		level.Info(s.log).Log("msg", "incomplete notification", "event", "invalid_notification", "order_id", res.OrderID)
		return res, fmt.Errorf("%w: order_id and status are required", ErrInvalidNotification)
	}

	level.Info(s.log).Log("msg", "notification received", "order_id", res.OrderID, "status", res.Status, "payment_id", n.PaymentID.String())

	res.Outcome, err = s.Reconcile(ctx, res.OrderID, res.Status)
	if err != nil {
		return res, err
	}

	return res, nil
}

// Reconcile maps the processor status to an order state transition.
// Duplicate and concurrent calls for the same order are safe: completion and refund
// side effects run at most once. When a side effect fails the order is left unchanged.
func (s *Service) Reconcile(ctx context.Context, orderID, status string) (Outcome, error) {
	unlock, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		return "", fmt.Errorf("failed to lock order %s: %w", orderID, err)
	}
	defer unlock()

	var outcome Outcome
	err = s.repo.WithOrderTx(ctx, orderID, func(ctx context.Context, q repository.Querier) error {
		order, err := q.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		outcome, err = s.apply(ctx, q, order, status)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return "", fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		metrics.ReconcileErrors.Inc()
		level.Error(s.log).Log("msg", "reconciliation failed", "order_id", orderID, "status", status, "error", err)
		return "", fmt.Errorf("failed to reconcile order %s: %w", orderID, err)
	}

	metrics.Reconciliations.WithLabelValues(string(outcome)).Inc()
	level.Info(s.log).Log("msg", "order reconciled", "order_id", orderID, "status", status, "outcome", outcome)

	return outcome, nil
}

func (s *Service) apply(ctx context.Context, q repository.Querier, order repository.Order, status string) (Outcome, error) {
	switch {
	case IsConfirmedStatus(status):
		if order.IsPaymentComplete() {
			return OutcomeAlreadyPaid, nil
		}
		if err := q.MarkPaymentComplete(ctx, order.ID); err != nil {
			if errors.Is(err, repository.ErrPaymentAlreadyComplete) {
				return OutcomeAlreadyPaid, nil
			}
			return "", fmt.Errorf("failed to complete payment: %w", err)
		}
		if err := q.UpdateStatus(ctx, order.ID, s.cfg.PaidStatus, paidNote(status)); err != nil {
			return "", fmt.Errorf("failed to update order status: %w", err)
		}
		return OutcomePaid, nil

	case IsRefundStatus(status):
		if order.Status == repository.OrderStatusRefunded {
			return OutcomeAlreadyRefunded, nil
		}
		// Funds are already back at the processor side, only bookkeeping is recorded.
		if _, err := q.CreateRefund(ctx, order.ID, order.Total, refundReason); err != nil {
			return "", fmt.Errorf("failed to create refund: %w", err)
		}
		if err := q.UpdateStatus(ctx, order.ID, repository.OrderStatusRefunded, refundedNote); err != nil {
			return "", fmt.Errorf("failed to update order status: %w", err)
		}
		return OutcomeRefunded, nil

	default:
		if order.IsPaymentComplete() {
			return OutcomeAlreadyPaid, nil
		}
		if order.Status == repository.OrderStatusRefunded {
			return OutcomeAlreadyRefunded, nil
		}
		if err := q.UpdateStatus(ctx, order.ID, repository.OrderStatusFailed, failedNote(status)); err != nil {
			return "", fmt.Errorf("failed to update order status: %w", err)
		}
		return OutcomeFailed, nil
	}
}

// CheckStatus asks the processor for the order status and reconciles the order.
// A network error or an unreadable response leaves the order unchanged and is returned
// as is, so the caller can defer the check. A JSON response without a status fails the order.
// ErrPaymentNotConfirmed is returned when the order is not paid afterwards.
func (s *Service) CheckStatus(ctx context.Context, orderID string) (Result, error) {
	res := Result{OrderID: orderID}
	if _, err := s.getOrder(ctx, orderID); err != nil {
		return res, err
	}

	resp, err := s.lp.Status(ctx, orderID)
	switch {
	case err == nil:
		res.Status = resp.Status
	case errors.Is(err, liqpay.ErrProcessor):
		level.Info(s.log).Log("msg", "status check failed by processor", "order_id", orderID, "error", err)
		res.Status = liqpay.StatusError
	default:
		level.Warn(s.log).Log("msg", "status check failed", "order_id", orderID, "error", err)
		return res, err
	}

	res.Outcome, err = s.Reconcile(ctx, orderID, res.Status)
	if err != nil {
		return res, err
	}
	if !res.Outcome.Confirmed() {
		return res, fmt.Errorf("%w: order %s status %s", ErrPaymentNotConfirmed, orderID, res.Status)
	}

	return res, nil
}

// GetOrder returns the order by id.
func (s *Service) GetOrder(ctx context.Context, orderID string) (repository.Order, error) {
	return s.getOrder(ctx, orderID)
}

func (s *Service) getOrder(ctx context.Context, orderID string) (repository.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return repository.Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return repository.Order{}, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}
	return order, nil
}
