package pipeline

import (
	"context"
	"log"
	"time"

	"mediloon/models"
)

// Reaper rejects awaiting-clarification sessions whose customers walked
// away. Runs until ctx is cancelled; interval is how often it sweeps.
func (o *Orchestrator) Reaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.sweep(ctx)
		}
	}
}

func (o *Orchestrator) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-o.cfg.ClarifyTimeout)
	ids, err := o.store.StaleAwaiting(ctx, cutoff)
	if err != nil {
		log.Printf("[pipeline] reaper scan: %v", err)
		return
	}

	for _, id := range ids {
		if err := o.expire(ctx, id, cutoff); err != nil && err != ErrSessionBusy {
			log.Printf("[pipeline] reaper expire %s: %v", id, err)
		}
	}
}

// expire rejects one stale session. A busy session is skipped; the next
// sweep catches it.
func (o *Orchestrator) expire(ctx context.Context, sessionID string, cutoff time.Time) error {
	if !o.locks.TryAcquire(sessionID) {
		return ErrSessionBusy
	}
	defer o.locks.Release(sessionID)

	sess, err := o.store.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	// Re-check under the lock: input may have arrived since the scan.
	if sess.Status != models.StatusAwaiting || sess.LastInputAt.After(cutoff) {
		return nil
	}

	sess.History = append(sess.History, models.StageResult{
		Stage:     sess.Stage,
		Decision:  models.DecisionReject,
		Reason:    ReasonTimeout,
		Timestamp: time.Now(),
		Attempt:   1,
	})
	sess.Status = models.StatusRejected
	sess.ClarificationPrompt = ""
	return o.save(ctx, sess)
}
