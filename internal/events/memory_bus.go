package events

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryBus delivers events to subscribers in the same process. Slow
// subscribers drop events rather than block the publisher.
type MemoryBus struct {
	mu   sync.Mutex
	subs map[string]map[chan []byte]struct{}
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: map[string]map[chan []byte]struct{}{}}
}

func (b *MemoryBus) Publish(_ context.Context, sessionID string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[sessionID] {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, sessionID string) (<-chan []byte, func(), error) {
	ch := make(chan []byte, 64)

	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = map[chan []byte]struct{}{}
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[sessionID], ch)
			if len(b.subs[sessionID]) == 0 {
				delete(b.subs, sessionID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}

	go func() {
		<-ctx.Done()
		cleanup()
	}()

	return ch, cleanup, nil
}
