package telemetry

import (
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// sender abstracts the one paho.mqtt.golang call MQTTPublisher needs, so
// tests can substitute a fake instead of dialing a real broker.
type sender interface {
	Send(topic string, payload []byte) error
}

type pahoSender struct {
	client mqtt.Client
	qos    byte
}

func (p *pahoSender) Send(topic string, payload []byte) error {
	token := p.client.Publish(topic, p.qos, false, payload)
	token.Wait()
	return token.Error()
}

// MQTTPublisher forwards round Events to an MQTT broker. Publishing never
// blocks the hot path: a full queue drops the event and bumps the drop
// counter rather than stalling the caller, the same backpressure rule
// recorder.Recorder applies to its SQLite queue.
type MQTTPublisher struct {
	send  sender
	topic string
	queue chan Event
	stop  chan struct{}
	done  chan struct{}

	dropCount uint64
}

// NewMQTTPublisher connects to broker and starts the background publish
// loop. Every Event is published, JSON-encoded, to topic.
func NewMQTTPublisher(broker, clientID, topic string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID).SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("telemetry: mqtt connect: %w", err)
	}
	return newMQTTPublisher(&pahoSender{client: client, qos: 0}, topic), nil
}

func newMQTTPublisher(send sender, topic string) *MQTTPublisher {
	p := &MQTTPublisher{
		send:  send,
		topic: topic,
		queue: make(chan Event, 1000),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go p.loop()
	return p
}

// Publish enqueues e for asynchronous delivery.
func (p *MQTTPublisher) Publish(e Event) {
	if p == nil {
		return
	}
	select {
	case p.queue <- e:
	default:
		p.dropCount++
	}
}

// DroppedEvents reports how many Publish calls were dropped due to queue
// backpressure.
func (p *MQTTPublisher) DroppedEvents() uint64 {
	return p.dropCount
}

// Close stops the publish loop and waits for it to exit; events still in
// the queue are not published.
func (p *MQTTPublisher) Close() error {
	close(p.stop)
	<-p.done
	return nil
}

func (p *MQTTPublisher) loop() {
	defer close(p.done)
	for {
		select {
		case <-p.stop:
			return
		case e := <-p.queue:
			p.publishOne(e)
		}
	}
}

func (p *MQTTPublisher) publishOne(e Event) {
	payload, err := jsonAPI.Marshal(e)
	if err != nil {
		log.Printf("telemetry: marshal event: %v", err)
		return
	}
	if err := p.send.Send(p.topic, payload); err != nil {
		log.Printf("telemetry: mqtt publish: %v", err)
	}
}
