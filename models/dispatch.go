package models

// NotifyRequest asks the side-effect dispatcher to deliver a customer
// notification. Delivery is at-least-once; the pipeline never waits on it.
type NotifyRequest struct {
	Channel   string         `json:"channel"` // email, sms, webhook
	Recipient string         `json:"recipient"`
	Payload   map[string]any `json:"payload"`
}

// PurchaseRequest asks the dispatcher to place a supplier order for a
// purchase intent. The synchronous dispatch acknowledgment (not supplier
// confirmation) is what gates order commit.
type PurchaseRequest struct {
	IntentID    string `json:"intentId"`
	SessionID   string `json:"sessionId"`
	SupplierRef string `json:"supplierRef"`
	SKU         string `json:"sku"`
	Quantity    int    `json:"quantity"`
}
