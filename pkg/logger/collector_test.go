package logger

import (
	"context"
	"sync"
	"testing"
	"time"
)

type capturePublisher struct {
	mu      sync.Mutex
	batches [][]AggregatedLogEntry
	topics  []string
}

func (p *capturePublisher) Publish(_ context.Context, topic string, _ []byte, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if logs, ok := value.([]AggregatedLogEntry); ok {
		p.batches = append(p.batches, logs)
	}
	p.topics = append(p.topics, topic)
	return nil
}

func (p *capturePublisher) batchCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.batches)
}

func waitForBatches(t *testing.T, p *capturePublisher, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for p.batchCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("flush never published: batches = %d, want %d", p.batchCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCollectorDeduplicatesAndFlushesOnThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour, // only the count threshold should trigger
		CountThreshold: 2,
		Topic:          "fincast.logs",
		Publisher:      pub,
	})
	defer c.Close()

	c.AddLog("error", "persist failed", map[string]interface{}{"symbol": "btcusdt"}, "a.go:1")
	c.AddLog("error", "persist failed", map[string]interface{}{"symbol": "btcusdt"}, "a.go:1")
	if pub.batchCount() != 0 {
		t.Fatalf("duplicate entries flushed early: %d batches", pub.batchCount())
	}

	c.AddLog("error", "publish failed", map[string]interface{}{"symbol": "ethusdt"}, "b.go:2")
	waitForBatches(t, pub, 1)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.topics[0] != "fincast.logs" {
		t.Fatalf("topic = %q", pub.topics[0])
	}
	batch := pub.batches[0]
	if len(batch) != 2 {
		t.Fatalf("batch entries = %d, want 2", len(batch))
	}
	counts := make(map[string]int)
	for _, e := range batch {
		counts[e.Message] = e.Count
	}
	if counts["persist failed"] != 2 || counts["publish failed"] != 1 {
		t.Fatalf("aggregated counts = %v", counts)
	}
}

func TestCollectorFlushesOnClose(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 100,
		Topic:          "fincast.logs",
		Publisher:      pub,
	})

	c.AddLog("error", "one-off", nil, "c.go:3")
	c.Close()
	waitForBatches(t, pub, 1)
}
