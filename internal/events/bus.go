// Package events carries notifications from mutating calls to listeners
// such as the log and the Telegram chat. Publishing never blocks the
// caller and never fails it.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/cookbook/internal/models"
)

// DefaultQueueSize is used when NewBus is given a non-positive size
const DefaultQueueSize = 256

const deliveryTimeout = 10 * time.Second

// Publisher is the publish side of the bus
type Publisher interface {
	Publish(eventType models.EventType, groupID uuid.UUID, document any, message string)
}

// Listener receives every event published on the bus
type Listener interface {
	Name() string
	Handle(ctx context.Context, event models.Event) error
}

// Bus delivers events to listeners from a single background worker
type Bus struct {
	logger  *logrus.Logger
	metrics *Metrics

	mu        sync.RWMutex
	listeners []Listener
	queue     chan models.Event
	closed    bool

	done chan struct{}
	now  func() time.Time
}

// NewBus creates a bus and starts its worker. Close must be called to stop it.
func NewBus(logger *logrus.Logger, metrics *Metrics, queueSize int, listeners ...Listener) *Bus {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	b := &Bus{
		logger:    logger,
		metrics:   metrics,
		listeners: listeners,
		queue:     make(chan models.Event, queueSize),
		done:      make(chan struct{}),
		now:       func() time.Time { return time.Now().UTC() },
	}
	go b.run()
	return b
}

// Subscribe adds a listener for events published from now on
func (b *Bus) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Publish queues an event. When the queue is full or the bus is closed the
// event is dropped and counted.
func (b *Bus) Publish(eventType models.EventType, groupID uuid.UUID, document any, message string) {
	event := models.Event{
		ID:        uuid.New(),
		Type:      eventType,
		GroupID:   groupID,
		Message:   message,
		Document:  document,
		Timestamp: b.now(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.metrics.Dropped.Inc()
		return
	}

	select {
	case b.queue <- event:
		b.metrics.Published.WithLabelValues(string(eventType)).Inc()
	default:
		b.metrics.Dropped.Inc()
		b.logger.WithField("event_type", eventType).Warn("Event queue full, dropping event")
	}
}

// Close stops accepting events, delivers what is queued and waits for the
// worker to exit.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		<-b.done
		return
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	<-b.done
}

func (b *Bus) run() {
	defer close(b.done)

	for event := range b.queue {
		b.mu.RLock()
		listeners := make([]Listener, len(b.listeners))
		copy(listeners, b.listeners)
		b.mu.RUnlock()

		for _, l := range listeners {
			if err := b.deliver(l, event); err != nil {
				b.metrics.Failed.WithLabelValues(l.Name()).Inc()
				b.logger.WithError(err).WithFields(logrus.Fields{
					"listener":   l.Name(),
					"event_type": event.Type,
					"event_id":   event.ID,
				}).Error("Event listener failed")
			}
		}
	}
}

func (b *Bus) deliver(l Listener, event models.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	return l.Handle(ctx, event)
}
