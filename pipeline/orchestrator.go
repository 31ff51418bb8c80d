// Package pipeline drives a customer's order through the four decision
// stages. The orchestrator owns the session state machine: it loads state,
// invokes agents against immutable snapshots, persists every transition, and
// emits side-effect requests without performing them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"mediloon/agents"
	"mediloon/dispatch"
	"mediloon/models"
	"mediloon/sessionstore"
	"mediloon/utils"

	"github.com/google/uuid"
)

// Extractor turns raw customer text into candidate line items. The default
// implementation is medparse; anything smarter plugs in here.
type Extractor interface {
	Extract(text, language string) ([]models.LineItem, error)
}

// OrderSink persists the durable order when a session commits.
type OrderSink interface {
	Commit(ctx context.Context, order models.CommittedOrder) error
}

// Notifier receives live session updates (the websocket hub implements it).
// Implementations must not block.
type Notifier interface {
	SessionUpdate(sessionID string, reply Reply)
}

// Config carries the orchestrator tunables.
type Config struct {
	StageTimeout time.Duration
	StageRetries int
	BackoffBase  time.Duration

	// ClarifyTimeout is how long an awaiting-clarification session may sit
	// idle before the reaper rejects it.
	ClarifyTimeout time.Duration
}

// Input is one customer turn, delivered by the transport layer.
type Input struct {
	SessionID  string
	CustomerID string

	// RawText is free-form customer text; Items is pre-structured input.
	// Both empty is valid while awaiting clarification (e.g. a prescription
	// was uploaded out of band) and simply re-enters the suspended stage.
	RawText string
	Items   []models.LineItem

	IdempotencyKey string
	Language       string
}

// Reply is what the transport returns to the customer.
type Reply struct {
	SessionID           string               `json:"sessionId"`
	Status              models.SessionStatus `json:"status"`
	Stage               models.Stage         `json:"stage,omitempty"`
	LineItems           []models.LineItem    `json:"lineItems"`
	ClarificationPrompt string               `json:"clarificationPrompt,omitempty"`
	Reason              string               `json:"reason,omitempty"`
}

type Orchestrator struct {
	store      sessionstore.Store
	agents     map[models.Stage]agents.Agent
	extractor  Extractor
	dispatcher dispatch.Dispatcher
	orders     OrderSink
	notifier   Notifier
	cfg        Config
	locks      *lockTable
}

func New(store sessionstore.Store, stageAgents []agents.Agent, extractor Extractor,
	dispatcher dispatch.Dispatcher, orders OrderSink, cfg Config) *Orchestrator {

	byStage := make(map[models.Stage]agents.Agent, len(stageAgents))
	for _, a := range stageAgents {
		byStage[a.Stage()] = a
	}
	if cfg.StageRetries < 1 {
		cfg.StageRetries = 1
	}
	return &Orchestrator{
		store:      store,
		agents:     byStage,
		extractor:  extractor,
		dispatcher: dispatcher,
		orders:     orders,
		cfg:        cfg,
		locks:      newLockTable(),
	}
}

// SetNotifier attaches a live-update sink. Optional.
func (o *Orchestrator) SetNotifier(n Notifier) { o.notifier = n }

// HandleInput applies one customer turn to a session and drives the state
// machine as far as it will go without further input.
func (o *Orchestrator) HandleInput(ctx context.Context, in Input) (Reply, error) {
	if !o.locks.TryAcquire(in.SessionID) {
		return Reply{}, ErrSessionBusy
	}
	defer o.locks.Release(in.SessionID)

	sess, err := o.store.Load(ctx, in.SessionID)
	switch {
	case errors.Is(err, sessionstore.ErrNotFound):
		sess = &models.OrderSession{
			SessionID:  in.SessionID,
			CustomerID: in.CustomerID,
			Status:     models.StatusCollecting,
			Language:   in.Language,
			CreatedAt:  time.Now(),
		}
	case err != nil:
		return Reply{}, fmt.Errorf("load session: %w", err)
	}

	// committed and rejected are terminal: report state, invoke nothing.
	if sess.Terminal() {
		return o.reply(sess), nil
	}

	// Re-delivered input: the work already happened, return current state.
	if in.IdempotencyKey != "" && sess.Processed(in.IdempotencyKey) {
		return o.reply(sess), nil
	}

	items := in.Items
	if in.RawText != "" {
		items, err = o.extractor.Extract(in.RawText, sess.Language)
		if err != nil {
			return Reply{}, err
		}
	}

	switch sess.Status {
	case models.StatusCollecting:
		mergeItems(sess, items)
		if len(sess.LineItems) == 0 {
			// Nothing orderable yet; stay collecting but record the input.
			o.recordInput(sess, in)
			if err := o.save(ctx, sess); err != nil {
				return Reply{}, err
			}
			r := o.reply(sess)
			r.ClarificationPrompt = "Which medicine would you like to order?"
			return r, nil
		}
		sess.Status = models.StatusInReview
		sess.Stage = models.StageOrdering

	case models.StatusAwaiting:
		// Resume the suspended stage. Only an item that lost its product
		// binding in the merge (new medicine, changed strength) forces a
		// detour through Ordering first; stages past it never see an
		// unresolved item.
		mergeItems(sess, items)
		sess.Status = models.StatusInReview
		sess.ClarificationPrompt = ""
		if anyUnresolved(sess.LineItems) {
			sess.Stage = models.StageOrdering
		}

	case models.StatusApproved:
		// A crash between approval and commit lands here: finish the commit.
		o.recordInput(sess, in)
		if err := o.commit(ctx, sess); err != nil {
			return Reply{}, err
		}
		return o.reply(sess), nil

	default:
		return Reply{}, fmt.Errorf("session %s in unexpected state %s", sess.SessionID, sess.Status)
	}

	o.recordInput(sess, in)
	if err := o.save(ctx, sess); err != nil {
		return Reply{}, err
	}

	return o.run(ctx, sess)
}

func (o *Orchestrator) recordInput(sess *models.OrderSession, in Input) {
	if in.IdempotencyKey != "" {
		sess.ProcessedInputs = append(sess.ProcessedInputs, in.IdempotencyKey)
	}
	sess.LastInputAt = time.Now()
}

// run drives in-review stages until the session suspends or terminates.
func (o *Orchestrator) run(ctx context.Context, sess *models.OrderSession) (Reply, error) {
	for sess.Status == models.StatusInReview {
		agent, ok := o.agents[sess.Stage]
		if !ok {
			return Reply{}, fmt.Errorf("no agent registered for stage %s", sess.Stage)
		}

		out, result, err := o.invoke(ctx, agent, sess)
		if err != nil {
			// Retries exhausted: terminal rejection, recorded in history
			// before anything is surfaced.
			log.Printf("[pipeline] session %s: %v", sess.SessionID, err)
			sess.History = append(sess.History, models.StageResult{
				Stage:     sess.Stage,
				Decision:  models.DecisionReject,
				Reason:    ReasonStageUnavailable,
				Timestamp: time.Now(),
				Attempt:   o.cfg.StageRetries,
			})
			sess.Status = models.StatusRejected
			if err := o.save(ctx, sess); err != nil {
				return Reply{}, err
			}
			return o.reply(sess), nil
		}

		sess.History = append(sess.History, result)

		switch out.Decision {
		case models.DecisionApprove:
			if out.Items != nil {
				sess.LineItems = out.Items
			}
			mergeIntents(sess, out.Intents)
			if next := sess.Stage.Next(); next != "" {
				sess.Stage = next
			} else {
				sess.Status = models.StatusApproved
			}

		case models.DecisionReject:
			sess.Status = models.StatusRejected

		case models.DecisionClarify:
			sess.Status = models.StatusAwaiting
			sess.ClarificationPrompt = out.Prompt

		default:
			return Reply{}, fmt.Errorf("stage %s returned unknown decision %q", sess.Stage, out.Decision)
		}

		if err := o.save(ctx, sess); err != nil {
			return Reply{}, err
		}
	}

	if sess.Status == models.StatusApproved {
		if err := o.commit(ctx, sess); err != nil {
			return Reply{}, err
		}
	}

	return o.reply(sess), nil
}

// invoke runs one stage against a snapshot, with the per-stage timeout and
// bounded exponential backoff on transient errors.
func (o *Orchestrator) invoke(ctx context.Context, agent agents.Agent, sess *models.OrderSession) (agents.Outcome, models.StageResult, error) {
	var lastErr error

	for attempt := 1; attempt <= o.cfg.StageRetries; attempt++ {
		cctx, cancel := context.WithTimeout(ctx, o.cfg.StageTimeout)
		out, err := agent.Evaluate(cctx, sess.Snapshot())
		cancel()

		if err == nil {
			return out, models.StageResult{
				Stage:     agent.Stage(),
				Decision:  out.Decision,
				Reason:    out.Reason,
				Timestamp: time.Now(),
				Attempt:   attempt,
			}, nil
		}

		lastErr = err
		log.Printf("[pipeline] session %s stage %s attempt %d: %v",
			sess.SessionID, agent.Stage(), attempt, err)

		if attempt < o.cfg.StageRetries {
			backoff := o.cfg.BackoffBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return agents.Outcome{}, models.StageResult{}, &stageUnavailableError{stage: agent.Stage(), last: ctx.Err()}
			case <-time.After(backoff):
			}
		}
	}

	return agents.Outcome{}, models.StageResult{}, &stageUnavailableError{stage: agent.Stage(), last: lastErr}
}

// commit writes the durable order, marks the session committed, and emits
// the confirmation notification (fire and forget).
func (o *Orchestrator) commit(ctx context.Context, sess *models.OrderSession) error {
	order := models.CommittedOrder{
		OrderID:    uuid.NewString(),
		SessionID:  sess.SessionID,
		CustomerID: sess.CustomerID,
		Items:      sess.LineItems,
		// Short numeric code: customers read it out at the counter.
		PickupCode: utils.GenerateRandomDigitString(8),
		CreatedAt:  time.Now(),
	}
	if err := o.orders.Commit(ctx, order); err != nil {
		// Session stays approved; the next input retries the commit.
		if saveErr := o.save(ctx, sess); saveErr != nil {
			log.Printf("[pipeline] save after failed commit: %v", saveErr)
		}
		return fmt.Errorf("commit order: %w", err)
	}

	sess.Status = models.StatusCommitted
	if err := o.save(ctx, sess); err != nil {
		return err
	}

	if _, err := o.dispatcher.Notify(ctx, models.NotifyRequest{
		Channel:   "webhook",
		Recipient: sess.CustomerID,
		Payload: map[string]any{
			"event":      "order-committed",
			"orderId":    order.OrderID,
			"sessionId":  sess.SessionID,
			"pickupCode": order.PickupCode,
		},
	}); err != nil {
		log.Printf("[pipeline] commit notification for %s failed: %v", sess.SessionID, err)
	}
	return nil
}

// save persists the session; on an optimistic-concurrency conflict it
// reloads and re-applies the in-memory state once onto the fresh version
// rather than overwriting blind.
func (o *Orchestrator) save(ctx context.Context, sess *models.OrderSession) error {
	err := o.store.Save(ctx, sess)
	if !errors.Is(err, sessionstore.ErrConflict) {
		if err == nil {
			o.notify(sess)
		}
		return err
	}

	fresh, loadErr := o.store.Load(ctx, sess.SessionID)
	if loadErr != nil {
		return fmt.Errorf("reload after conflict: %w", loadErr)
	}
	if fresh.Terminal() {
		// Someone else finished the session; do not regress it.
		*sess = *fresh
		return nil
	}
	sess.Version = fresh.Version
	if err := o.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("save after conflict reload: %w", err)
	}
	o.notify(sess)
	return nil
}

func (o *Orchestrator) notify(sess *models.OrderSession) {
	if o.notifier != nil {
		o.notifier.SessionUpdate(sess.SessionID, o.reply(sess))
	}
}

func (o *Orchestrator) reply(sess *models.OrderSession) Reply {
	r := Reply{
		SessionID:           sess.SessionID,
		Status:              sess.Status,
		Stage:               sess.Stage,
		LineItems:           sess.LineItems,
		ClarificationPrompt: sess.ClarificationPrompt,
	}
	if n := len(sess.History); n > 0 {
		r.Reason = sess.History[n-1].Reason
	}
	return r
}

// ResolveIntent applies the dispatcher's asynchronous supplier callback to a
// purchase intent. This is the only writer of intent terminal states.
func (o *Orchestrator) ResolveIntent(ctx context.Context, sessionID, intentID string, status models.PurchaseIntentStatus) error {
	if status != models.IntentConfirmed && status != models.IntentFailed {
		return fmt.Errorf("intent %s: %q is not a terminal status", intentID, status)
	}
	if !o.locks.TryAcquire(sessionID) {
		return ErrSessionBusy
	}
	defer o.locks.Release(sessionID)

	sess, err := o.store.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	found := false
	for i := range sess.PurchaseIntents {
		if sess.PurchaseIntents[i].IntentID == intentID {
			sess.PurchaseIntents[i].Status = status
			found = true
		}
	}
	if !found {
		return fmt.Errorf("intent %s not found on session %s", intentID, sessionID)
	}
	return o.save(ctx, sess)
}

// Session returns the current state of a session for read-only callers.
func (o *Orchestrator) Session(ctx context.Context, sessionID string) (*models.OrderSession, error) {
	return o.store.Load(ctx, sessionID)
}

// mergeItems folds new candidates into the session: an item with the same
// normalized name replaces the previous request, anything else is appended.
// A plain restatement of an already-resolved item (same name, same or
// omitted strength) keeps its product binding; changing the strength drops
// the binding so Ordering resolves it afresh.
func mergeItems(sess *models.OrderSession, items []models.LineItem) {
	for _, item := range items {
		replaced := false
		for i := range sess.LineItems {
			cur := sess.LineItems[i]
			if !strings.EqualFold(cur.Name, item.Name) {
				continue
			}
			if cur.Resolved() && !item.Resolved() &&
				(item.Strength == "" || strings.EqualFold(item.Strength, cur.Strength)) {
				item.ProductRef = cur.ProductRef
				item.Name = cur.Name
				item.Strength = cur.Strength
				if item.Confidence < cur.Confidence {
					item.Confidence = cur.Confidence
				}
			}
			sess.LineItems[i] = item
			replaced = true
			break
		}
		if !replaced {
			sess.LineItems = append(sess.LineItems, item)
		}
	}
}

func anyUnresolved(items []models.LineItem) bool {
	for _, item := range items {
		if !item.Resolved() {
			return true
		}
	}
	return false
}

// mergeIntents appends unknown intents and replaces known ones by ID.
func mergeIntents(sess *models.OrderSession, intents []models.PurchaseIntent) {
	for _, intent := range intents {
		replaced := false
		for i := range sess.PurchaseIntents {
			if sess.PurchaseIntents[i].IntentID == intent.IntentID {
				sess.PurchaseIntents[i] = intent
				replaced = true
				break
			}
		}
		if !replaced {
			sess.PurchaseIntents = append(sess.PurchaseIntents, intent)
		}
	}
}
