package dispatch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"mediloon/models"

	"github.com/redis/go-redis/v9"
)

// Worker subscribes to the dispatch channels and performs the actual HTTP
// webhook deliveries. Each message is attempted a few times; a request that
// still fails is logged and dropped here, with the supplier callback (or its
// absence) driving the purchase intent to its terminal status.
type Worker struct {
	conn *redis.Client
	http *http.Client

	supplierURL string
	notifyURL   string
}

func NewWorker(conn *redis.Client, supplierURL, notifyURL string) *Worker {
	return &Worker{
		conn:        conn,
		http:        &http.Client{Timeout: 30 * time.Second},
		supplierURL: supplierURL,
		notifyURL:   notifyURL,
	}
}

// Run blocks consuming both channels until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	sub := w.conn.Subscribe(ctx, NotifyChannel, PurchaseChannel)
	defer sub.Close()
	ch := sub.Channel()

	log.Println("[dispatch] worker listening")
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.handle(ctx, msg.Payload)
		}
	}
}

func (w *Worker) handle(ctx context.Context, payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		log.Printf("[dispatch] bad envelope: %v", err)
		return
	}

	switch env.Kind {
	case "notify":
		var req models.NotifyRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			log.Printf("[dispatch] bad notify payload: %v", err)
			return
		}
		w.deliver(ctx, w.notifyURL, env.DispatchID, req)

	case "purchase":
		var req models.PurchaseRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			log.Printf("[dispatch] bad purchase payload: %v", err)
			return
		}
		body := map[string]any{
			"dispatchId": env.DispatchID,
			"request":    req,
		}
		if pdf, err := PurchaseOrderPDF(req); err == nil {
			body["purchaseOrderPdf"] = base64.StdEncoding.EncodeToString(pdf)
		} else {
			log.Printf("[dispatch] PO pdf for %s failed: %v", req.IntentID, err)
		}
		w.deliver(ctx, w.supplierURL, env.DispatchID, body)

	default:
		log.Printf("[dispatch] unknown kind %q", env.Kind)
	}
}

// deliver posts the payload, retrying transient failures.
func (w *Worker) deliver(ctx context.Context, url, dispatchID string, payload any) {
	if url == "" {
		log.Printf("[dispatch] no webhook configured, dropping %s", dispatchID)
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[dispatch] marshal %s: %v", dispatchID, err)
		return
	}

	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			log.Printf("[dispatch] build request %s: %v", dispatchID, err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.http.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
				return
			}
			log.Printf("[dispatch] %s got %d (attempt %d)", dispatchID, resp.StatusCode, attempt)
		} else {
			log.Printf("[dispatch] %s send error (attempt %d): %v", dispatchID, attempt, err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	log.Printf("[dispatch] giving up on %s", dispatchID)
}
