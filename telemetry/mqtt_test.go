package telemetry

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSender struct {
	mu      sync.Mutex
	topics  []string
	payload [][]byte
	err     error
}

func (f *fakeSender) Send(topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	f.payload = append(f.payload, payload)
	return f.err
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.topics)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestMQTTPublisherPublishesEvent(t *testing.T) {
	fs := &fakeSender{}
	p := newMQTTPublisher(fs, "cosim/rounds")
	defer p.Close()

	p.Publish(Event{SessionID: "s1", SimTime: 0, Result: "DELTA"})

	waitFor(t, func() bool { return fs.count() == 1 })
	if fs.topics[0] != "cosim/rounds" {
		t.Fatalf("unexpected topic %q", fs.topics[0])
	}
}

func TestMQTTPublisherDropsUnderBackpressure(t *testing.T) {
	block := make(chan struct{})
	fs := &blockingSender{block: block}
	p := newMQTTPublisher(fs, "cosim/rounds")
	defer func() {
		close(block)
		p.Close()
	}()

	for i := 0; i < 2000; i++ {
		p.Publish(Event{SessionID: "flood"})
	}
	if p.DroppedEvents() == 0 {
		t.Fatalf("expected some events to be dropped under backpressure")
	}
}

type blockingSender struct {
	block chan struct{}
}

func (b *blockingSender) Send(string, []byte) error {
	<-b.block
	return nil
}

func TestMQTTPublisherLogsSendError(t *testing.T) {
	fs := &fakeSender{err: errors.New("broker unavailable")}
	p := newMQTTPublisher(fs, "cosim/rounds")
	defer p.Close()

	p.Publish(Event{SessionID: "s1"})
	waitFor(t, func() bool { return fs.count() == 1 })
}

func TestMQTTPublisherNilReceiverIsNoop(t *testing.T) {
	var p *MQTTPublisher
	p.Publish(Event{SessionID: "x"}) // must not panic
}
