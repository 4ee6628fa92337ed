package payment

import (
	"context"
	"errors"

	"github.com/easypmnt/liqpay-gateway/events"
	"github.com/easypmnt/liqpay-gateway/liqpay"
	"github.com/easypmnt/liqpay-gateway/repository"
)

type (
	// ServiceEvents decorates the payment service and fires an event on every order transition.
	ServiceEvents struct {
		svc       paymentService
		fireEvent fireEventFunc
	}

	paymentService interface {
		BuildPaymentRedirect(ctx context.Context, orderID string) (string, error)
		BuildPaymentForm(ctx context.Context, orderID string) (liqpay.CheckoutForm, error)
		HandleNotification(ctx context.Context, data, signature string) (Result, error)
		Reconcile(ctx context.Context, orderID, status string) (Outcome, error)
		CheckStatus(ctx context.Context, orderID string) (Result, error)
		GetOrder(ctx context.Context, orderID string) (repository.Order, error)
	}

	fireEventFunc func(events.EventName, ...interface{})
)

// NewServiceEvents wraps svc.
func NewServiceEvents(svc paymentService, eventFn fireEventFunc) *ServiceEvents {
	return &ServiceEvents{svc: svc, fireEvent: eventFn}
}

// BuildPaymentRedirect builds the checkout link.
func (s *ServiceEvents) BuildPaymentRedirect(ctx context.Context, orderID string) (string, error) {
	link, err := s.svc.BuildPaymentRedirect(ctx, orderID)
	if err != nil {
		return "", err
	}

	s.fireEvent(events.CheckoutLinkGenerated, events.CheckoutLinkGeneratedPayload{
		OrderID: orderID,
		Link:    link,
	})

	return link, nil
}

// BuildPaymentForm builds the checkout form fields.
func (s *ServiceEvents) BuildPaymentForm(ctx context.Context, orderID string) (liqpay.CheckoutForm, error) {
	return s.svc.BuildPaymentForm(ctx, orderID)
}

// HandleNotification handles an inbound notification.
func (s *ServiceEvents) HandleNotification(ctx context.Context, data, signature string) (Result, error) {
	res, err := s.svc.HandleNotification(ctx, data, signature)
	if err != nil {
		switch {
		case errors.Is(err, liqpay.ErrInvalidSignature):
			s.fireEvent(events.SignatureMismatch, events.NotificationRejectedPayload{Reason: err.Error()})
		case errors.Is(err, ErrInvalidNotification), errors.Is(err, ErrOrderNotFound):
			s.fireEvent(events.NotificationRejected, events.NotificationRejectedPayload{
				OrderID: res.OrderID,
				Reason:  err.Error(),
			})
		}
		return res, err
	}

	s.fireOutcome(res, events.SourceWebhook)

	return res, nil
}

// Reconcile reconciles the order with the given processor status.
func (s *ServiceEvents) Reconcile(ctx context.Context, orderID, status string) (Outcome, error) {
	outcome, err := s.svc.Reconcile(ctx, orderID, status)
	if err != nil {
		return "", err
	}

	s.fireOutcome(Result{OrderID: orderID, Status: status, Outcome: outcome}, "")

	return outcome, nil
}

// CheckStatus polls the processor and reconciles the order.
func (s *ServiceEvents) CheckStatus(ctx context.Context, orderID string) (Result, error) {
	res, err := s.svc.CheckStatus(ctx, orderID)
	if res.Outcome != "" {
		s.fireOutcome(res, events.SourcePoll)
	}
	if err != nil && errors.Is(err, liqpay.ErrNetwork) {
		s.fireEvent(events.StatusCheckFailed, events.StatusCheckFailedPayload{
			OrderID: orderID,
			Error:   err.Error(),
		})
	}

	return res, err
}

// GetOrder returns the order.
func (s *ServiceEvents) GetOrder(ctx context.Context, orderID string) (repository.Order, error) {
	return s.svc.GetOrder(ctx, orderID)
}

// fireOutcome fires an event for outcomes that changed the order.
func (s *ServiceEvents) fireOutcome(res Result, source string) {
	name := getEventName(res.Outcome)
	if name == "" {
		return
	}

	s.fireEvent(name, events.OrderStatusPayload{
		OrderID:         res.OrderID,
		Status:          string(res.Outcome),
		ProcessorStatus: res.Status,
		Source:          source,
	})
}

// getEventName returns the name of the event for the given outcome.
func getEventName(o Outcome) events.EventName {
	switch o {
	case OutcomePaid:
		return events.OrderPaid
	case OutcomeRefunded:
		return events.OrderRefunded
	case OutcomeFailed:
		return events.OrderFailed
	default:
		return ""
	}
}
