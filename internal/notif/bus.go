// Package notif fans committed-message events out to observers on a worker pool.
package notif

import (
	"sync"

	"github.com/rs/zerolog"

	"botrelay/internal/common"
	"botrelay/internal/metrics"
)

// EventBus delivers MessageEvents to every subscribed observer. NotifyAsync
// never blocks the caller; a full buffer drops the event.
type EventBus struct {
	observers    map[string]common.Observer
	eventChannel chan common.MessageEvent
	workerPool   int
	closed       bool
	log          zerolog.Logger
	mu           sync.RWMutex
	wg           sync.WaitGroup
}

var _ common.Subject = (*EventBus)(nil)

func NewEventBus(workerPoolSize, bufferSize int, log zerolog.Logger) *EventBus {
	if workerPoolSize < 1 {
		workerPoolSize = 1
	}
	if bufferSize < 1 {
		bufferSize = 1
	}

	bus := &EventBus{
		observers:    make(map[string]common.Observer),
		eventChannel: make(chan common.MessageEvent, bufferSize),
		workerPool:   workerPoolSize,
		log:          log.With().Str("component", "event_bus").Logger(),
	}

	for i := 0; i < workerPoolSize; i++ {
		bus.wg.Add(1)
		go bus.processEvents()
	}

	return bus
}

func (b *EventBus) Subscribe(observer common.Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers[observer.Name()] = observer
	b.log.Info().Str("observer", observer.Name()).Msg("observer subscribed")
}

func (b *EventBus) Unsubscribe(observer common.Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.observers, observer.Name())
	b.log.Info().Str("observer", observer.Name()).Msg("observer unsubscribed")
}

// Notify runs every observer on the calling goroutine.
func (b *EventBus) Notify(event common.MessageEvent) {
	b.mu.RLock()
	observers := make([]common.Observer, 0, len(b.observers))
	for _, obs := range b.observers {
		observers = append(observers, obs)
	}
	b.mu.RUnlock()

	for _, observer := range observers {
		if err := observer.Update(event); err != nil {
			b.log.Error().
				Err(err).
				Str("observer", observer.Name()).
				Str("message_id", event.MessageID).
				Msg("observer update failed")
		}
	}
}

func (b *EventBus) NotifyAsync(event common.MessageEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		metrics.EventsDropped.WithLabelValues("closed").Inc()
		return
	}

	select {
	case b.eventChannel <- event:
	default:
		metrics.EventsDropped.WithLabelValues("full").Inc()
		b.log.Error().
			Str("message_id", event.MessageID).
			Str("type", string(event.Type)).
			Msg("event channel full, dropping event")
	}
}

func (b *EventBus) processEvents() {
	defer b.wg.Done()

	for event := range b.eventChannel {
		b.Notify(event)
	}
}

// Shutdown stops accepting events and waits until the queued ones are handled.
func (b *EventBus) Shutdown() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.eventChannel)
	b.mu.Unlock()

	b.wg.Wait()
	b.log.Info().Msg("event bus shutdown complete")
}
