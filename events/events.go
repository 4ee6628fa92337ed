package events

// Predefined
const (
	OrderPaid             EventName = "order.paid"
	OrderFailed           EventName = "order.failed"
	OrderRefunded         EventName = "order.refunded"
	NotificationRejected  EventName = "notification.rejected"
	SignatureMismatch     EventName = "notification.signature_mismatch"
	CheckoutLinkGenerated EventName = "checkout.link.generated"
	StatusCheckFailed     EventName = "status.check.failed"
)

// Sources of a reconciliation.
const (
	SourceWebhook = "webhook"
	SourcePoll    = "poll"
)

// Event payloads.
type (
	OrderStatusPayload struct {
		OrderID         string `json:"order_id"`
		Status          string `json:"status"`
		ProcessorStatus string `json:"processor_status"`
		Source          string `json:"source"`
	}

	NotificationRejectedPayload struct {
		OrderID string `json:"order_id,omitempty"`
		Reason  string `json:"reason"`
	}

	CheckoutLinkGeneratedPayload struct {
		OrderID string `json:"order_id"`
		Link    string `json:"link"`
	}

	StatusCheckFailedPayload struct {
		OrderID string `json:"order_id"`
		Error   string `json:"error"`
	}
)
