package evaluation

import (
	"context"
	"time"

	"github.com/adolfdaniel/browser-genai-eval/internal/session"
)

// RunSweeper periodically resolves pending requests whose browser never
// answered. It is the liveness backstop: no session can sit in Running
// forever. The sweep takes one session's lock at a time, never several.
func (o *Orchestrator) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			o.Sweep(now)
		}
	}
}

// Sweep resolves every pending request older than the response timeout as a
// synthetic timeout result. Exposed for tests; RunSweeper calls it on a
// ticker.
func (o *Orchestrator) Sweep(now time.Time) {
	o.store.ForEach(func(sess *session.EvaluationSession) {
		for _, requestID := range sess.ExpiredPending(now, o.cfg.ResponseTimeout) {
			o.resolveTimeout(sess, requestID)
		}
	})
}
