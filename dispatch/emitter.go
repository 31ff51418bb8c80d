// Package dispatch is the boundary to the side-effect dispatcher. The
// pipeline emits notification and supplier-purchase requests here and never
// performs them itself: a successful publish is the dispatch acknowledgment,
// delivery is the worker's problem (at-least-once).
package dispatch

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"mediloon/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	NotifyChannel   = "notify-requests"
	PurchaseChannel = "purchase-requests"
)

// Ack is the synchronous dispatch acknowledgment.
type Ack struct {
	DispatchID string    `json:"dispatchId"`
	At         time.Time `json:"at"`
}

// Dispatcher accepts side-effect requests and acknowledges acceptance.
type Dispatcher interface {
	Notify(ctx context.Context, req models.NotifyRequest) (Ack, error)
	Purchase(ctx context.Context, req models.PurchaseRequest) (Ack, error)
}

// envelope is the wire form published to Redis.
type envelope struct {
	DispatchID string          `json:"dispatchId"`
	Kind       string          `json:"kind"` // "notify" | "purchase"
	Payload    json.RawMessage `json:"payload"`
	EmittedAt  time.Time       `json:"emittedAt"`
}

// Emitter publishes requests to Redis channels consumed by the Worker.
type Emitter struct {
	conn *redis.Client
}

func NewEmitter(conn *redis.Client) *Emitter {
	return &Emitter{conn: conn}
}

func (e *Emitter) Notify(ctx context.Context, req models.NotifyRequest) (Ack, error) {
	return e.publish(ctx, NotifyChannel, "notify", req)
}

func (e *Emitter) Purchase(ctx context.Context, req models.PurchaseRequest) (Ack, error) {
	return e.publish(ctx, PurchaseChannel, "purchase", req)
}

func (e *Emitter) publish(ctx context.Context, channel, kind string, payload any) (Ack, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Ack{}, err
	}

	env := envelope{
		DispatchID: uuid.NewString(),
		Kind:       kind,
		Payload:    raw,
		EmittedAt:  time.Now(),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return Ack{}, err
	}

	if err := e.conn.Publish(ctx, channel, data).Err(); err != nil {
		log.Printf("[dispatch] publish %s failed: %v", kind, err)
		return Ack{}, err
	}
	return Ack{DispatchID: env.DispatchID, At: env.EmittedAt}, nil
}
