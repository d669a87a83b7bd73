package event

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/oklog/ulid/v2"
)

// EventType represents the type of event.
type EventType string

const (
	ParameterResolved EventType = "parameter.resolved"
	NamespaceSynced   EventType = "namespace.synced"
	FileWritten       EventType = "file.written"
	FileSkipped       EventType = "file.skipped"
	ConfigChanged     EventType = "config.changed"
)

// allTopic receives a copy of every event.
const allTopic = "*"

// Event represents a published event.
type Event struct {
	ID   string          `json:"id"`
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Subscriber is a function that receives events.
type Subscriber func(event Event)

// Bus is the event bus. A nil *Bus is valid and drops every event.
type Bus struct {
	mu     sync.Mutex
	pubsub *gochannel.GoChannel
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// NewBus creates a bus backed by a watermill gochannel.
func NewBus() *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer:            16,
				BlockPublishUntilSubscriberAck: true,
			},
			watermill.NopLogger{},
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Subscribe registers fn for one event type and returns an unsubscribe
// function.
func (b *Bus) Subscribe(eventType EventType, fn Subscriber) func() {
	return b.subscribe(string(eventType), fn)
}

// SubscribeAll registers fn for every event type.
func (b *Bus) SubscribeAll(fn Subscriber) func() {
	return b.subscribe(allTopic, fn)
}

func (b *Bus) subscribe(topic string, fn Subscriber) func() {
	if b == nil {
		return func() {}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}

	ctx, cancel := context.WithCancel(b.ctx)
	messages, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		cancel()
		return func() {}
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range messages {
			var e Event
			if err := json.Unmarshal(msg.Payload, &e); err == nil {
				fn(e)
			}
			msg.Ack()
		}
	}()
	return cancel
}

// Publish encodes data and delivers it to the subscribers of eventType and
// to the catch-all subscribers. It returns once every subscriber handled it.
func (b *Bus) Publish(eventType EventType, data any) error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	e := Event{ID: ulid.Make().String(), Type: eventType, Data: raw}
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	for _, topic := range []string{string(eventType), allTopic} {
		if err := b.pubsub.Publish(topic, message.NewMessage(e.ID, payload)); err != nil {
			return err
		}
	}
	return nil
}

// Close stops every subscription and waits for the handlers to return.
func (b *Bus) Close() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	err := b.pubsub.Close()
	b.wg.Wait()
	return err
}
