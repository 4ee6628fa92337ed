package payment

import (
	"fmt"

	"github.com/easypmnt/liqpay-gateway/liqpay"
	"github.com/easypmnt/liqpay-gateway/repository"
)

// Outcome is the result of a reconciliation.
type Outcome string

// Predefined reconciliation outcomes.
const (
	OutcomePaid            Outcome = "paid"             // Order transitioned to the paid status, completion ran.
	OutcomeAlreadyPaid     Outcome = "already_paid"     // Completion ran before, nothing changed.
	OutcomeRefunded        Outcome = "refunded"         // Refund recorded, order transitioned to refunded.
	OutcomeAlreadyRefunded Outcome = "already_refunded" // Order was refunded before, nothing changed.
	OutcomeFailed          Outcome = "failed"           // Order transitioned to failed.
)

// Confirmed reports whether the order is paid after the reconciliation.
func (o Outcome) Confirmed() bool {
	return o == OutcomePaid || o == OutcomeAlreadyPaid
}

// Result describes a handled notification or status check.
type Result struct {
	OrderID string  `json:"order_id"`
	Status  string  `json:"status"` // processor status
	Outcome Outcome `json:"outcome"`
}

// IsConfirmedStatus reports whether the processor status means the customer paid.
// wait_accept means the funds are debited and the merchant account is pending
// activation, it is confirmed on every path.
func IsConfirmedStatus(status string) bool {
	switch status {
	case liqpay.StatusSuccess, liqpay.StatusSandbox, liqpay.StatusWaitAccept:
		return true
	}
	return false
}

// IsRefundStatus reports whether the processor status means the payment was returned.
func IsRefundStatus(status string) bool {
	return status == liqpay.StatusReversed
}

// Statuses that can not be used as the status of a paid order.
var forbiddenPaidStatuses = map[repository.OrderStatus]bool{
	repository.OrderStatusOnHold:        true,
	repository.OrderStatusPending:       true,
	repository.OrderStatusCancelled:     true,
	repository.OrderStatusRefunded:      true,
	repository.OrderStatusFailed:        true,
	repository.OrderStatusCheckoutDraft: true,
}

func paidNote(status string) string {
	return fmt.Sprintf("LiqPay payment confirmed (status: %s)", status)
}

func failedNote(status string) string {
	return fmt.Sprintf("LiqPay payment failed (status: %s)", status)
}

const (
	refundReason = "Payment reversed by LiqPay"
	refundedNote = "LiqPay payment reversed, order refunded"
)
