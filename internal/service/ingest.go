package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/rag"
)

type Relay interface {
	Enabled() bool
	Do(ctx context.Context, userID string, req rag.Request) (json.RawMessage, error)
}

// Ingester forwards saved entries to the retrieval service in the
// background. Failures are logged and never reach the request that
// triggered them.
type Ingester struct {
	relay   Relay
	logger  internal.Logger
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewIngester(relay Relay, timeout time.Duration, logger internal.Logger) *Ingester {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Ingester{relay: relay, logger: logger, timeout: timeout}
}

// Submit queues req for userID. It is a no-op when the relay is disabled or
// the ingester is closed.
func (i *Ingester) Submit(userID string, req rag.Request) {
	if !i.relay.Enabled() {
		return
	}
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return
	}
	i.wg.Add(1)
	i.mu.Unlock()

	go func() {
		defer i.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
		defer cancel()
		if _, err := i.relay.Do(ctx, userID, req); err != nil {
			i.logger.Warnf("background %s ingestion for user %s failed: %v", req.Action(), userID, err)
		}
	}()
}

// Close stops accepting work and waits for in-flight ingestions.
func (i *Ingester) Close() {
	i.mu.Lock()
	i.closed = true
	i.mu.Unlock()
	i.wg.Wait()
}
