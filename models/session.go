package models

import "time"

// SessionStatus is the lifecycle state of an ordering conversation.
// Transitions are monotonic: committed and rejected are terminal.
type SessionStatus string

const (
	StatusCollecting SessionStatus = "collecting"
	StatusAwaiting   SessionStatus = "awaiting-clarification"
	StatusInReview   SessionStatus = "in-review"
	StatusApproved   SessionStatus = "approved"
	StatusRejected   SessionStatus = "rejected"
	StatusCommitted  SessionStatus = "committed"
)

// Stage identifies one of the four decision agents, evaluated in this order.
type Stage string

const (
	StageOrdering    Stage = "ordering"
	StageSafety      Stage = "safety"
	StageForecast    Stage = "forecast"
	StageProcurement Stage = "procurement"
)

// StageOrder is the fixed evaluation sequence.
var StageOrder = []Stage{StageOrdering, StageSafety, StageForecast, StageProcurement}

// Next returns the stage after s, or "" when s is the last stage.
func (s Stage) Next() Stage {
	for i, st := range StageOrder {
		if st == s && i+1 < len(StageOrder) {
			return StageOrder[i+1]
		}
	}
	return ""
}

// Decision is a stage outcome.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
	DecisionClarify Decision = "clarify"
)

// StageResult is an immutable record of one stage invocation. It is owned by
// the session that produced it and appended to its history.
type StageResult struct {
	Stage     Stage     `json:"stage" bson:"stage"`
	Decision  Decision  `json:"decision" bson:"decision"`
	Reason    string    `json:"reason" bson:"reason"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Attempt   int       `json:"attempt" bson:"attempt"`
}

// LineItem is one requested medicine. ProductRef stays empty until the
// Ordering stage resolves it against the catalog.
type LineItem struct {
	Name       string  `json:"name" bson:"name"`
	Strength   string  `json:"strength,omitempty" bson:"strength,omitempty"`
	Form       string  `json:"form,omitempty" bson:"form,omitempty"`
	Quantity   int     `json:"quantity" bson:"quantity"`
	Confidence float64 `json:"confidence" bson:"confidence"`
	ProductRef string  `json:"productRef,omitempty" bson:"productref,omitempty"`
}

// Resolved reports whether the item has exactly one catalog product bound.
func (li LineItem) Resolved() bool { return li.ProductRef != "" }

// PurchaseIntentStatus tracks a supplier purchase through dispatch.
type PurchaseIntentStatus string

const (
	IntentPending   PurchaseIntentStatus = "pending"
	IntentSent      PurchaseIntentStatus = "sent"
	IntentConfirmed PurchaseIntentStatus = "confirmed"
	IntentFailed    PurchaseIntentStatus = "failed"
)

// PurchaseIntent is created by the Forecast stage when stock cannot cover an
// order. Procurement dispatches it; the dispatcher's asynchronous callback
// sets the terminal status, never the orchestrator.
type PurchaseIntent struct {
	IntentID    string               `json:"intentId" bson:"intentid"`
	SupplierRef string               `json:"supplierRef" bson:"supplierref"`
	LineItemRef string               `json:"lineItemRef" bson:"lineitemref"`
	Quantity    int                  `json:"quantity" bson:"quantity"`
	Status      PurchaseIntentStatus `json:"status" bson:"status"`
	CreatedAt   time.Time            `json:"createdAt" bson:"createdat"`
}

// OrderSession is the single shared mutable record of a customer
// conversation. It is persisted one document per session, keyed by
// SessionID, with Version guarding optimistic-concurrency saves.
type OrderSession struct {
	SessionID  string        `json:"sessionId" bson:"sessionid"`
	CustomerID string        `json:"customerId" bson:"customerid"`
	Status     SessionStatus `json:"status" bson:"status"`

	// Stage under review while Status is in-review, or the stage to
	// re-enter after clarification while Status is awaiting-clarification.
	Stage Stage `json:"stage,omitempty" bson:"stage,omitempty"`

	LineItems       []LineItem       `json:"lineItems" bson:"lineitems"`
	History         []StageResult    `json:"history" bson:"history"`
	PurchaseIntents []PurchaseIntent `json:"purchaseIntents,omitempty" bson:"purchaseintents,omitempty"`

	ClarificationPrompt string `json:"clarificationPrompt,omitempty" bson:"clarificationprompt,omitempty"`

	// Idempotency keys of inputs already applied, in arrival order.
	ProcessedInputs []string `json:"-" bson:"processedinputs"`

	Language string `json:"language,omitempty" bson:"language,omitempty"`

	Version     int64     `json:"-" bson:"version"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdat"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedat"`
	LastInputAt time.Time `json:"-" bson:"lastinputat"`
}

// Terminal reports whether the session can accept no further input.
func (s *OrderSession) Terminal() bool {
	return s.Status == StatusCommitted || s.Status == StatusRejected
}

// Processed reports whether an idempotency key was already applied.
func (s *OrderSession) Processed(key string) bool {
	for _, k := range s.ProcessedInputs {
		if k == key {
			return true
		}
	}
	return false
}

// Snapshot returns a deep copy for handing to stage agents, so no agent can
// reach the live session record.
func (s *OrderSession) Snapshot() *OrderSession {
	cp := *s
	cp.LineItems = append([]LineItem(nil), s.LineItems...)
	cp.History = append([]StageResult(nil), s.History...)
	cp.PurchaseIntents = append([]PurchaseIntent(nil), s.PurchaseIntents...)
	cp.ProcessedInputs = append([]string(nil), s.ProcessedInputs...)
	return &cp
}
