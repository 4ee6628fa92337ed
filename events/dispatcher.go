package events

import (
	"context"
	"sync"

	"github.com/dustin/go-broadcast"
)

type (
	// EventName identifies an event.
	EventName string

	// Listener handles an event payload.
	Listener func(payload ...interface{}) error

	// Event is what goes through the broadcaster.
	Event struct {
		Name    EventName
		Payload []interface{}
	}

	// Dispatcher fans events out to listeners on a dedicated goroutine.
	Dispatcher struct {
		b  broadcast.Broadcaster
		ch chan interface{}

		mu        sync.RWMutex
		listeners map[EventName][]Listener

		closeMu     sync.RWMutex
		closed      bool
		done        chan struct{}
		discardOnce sync.Once

		log logger
	}

	logger interface {
		Log(keyvals ...interface{}) error
	}
)

// NewDispatcher returns a dispatcher buffering up to buflen events.
// Fire blocks once the buffer is full until Run delivers events.
func NewDispatcher(log logger, buflen int) *Dispatcher {
	d := &Dispatcher{
		b:         broadcast.NewBroadcaster(buflen),
		ch:        make(chan interface{}, buflen),
		listeners: make(map[EventName][]Listener),
		done:      make(chan struct{}),
		log:       log,
	}
	d.b.Register(d.ch)
	return d
}

// On registers a listener for the event.
func (d *Dispatcher) On(name EventName, l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[name] = append(d.listeners[name], l)
}

// Fire submits an event. Events fired after Close are dropped.
func (d *Dispatcher) Fire(name EventName, payload ...interface{}) {
	d.closeMu.RLock()
	defer d.closeMu.RUnlock()
	if d.closed {
		return
	}
	d.b.Submit(Event{Name: name, Payload: payload})
}

// Run delivers events to listeners until ctx is done.
// Events fired after that are discarded until Close.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.startDiscard()
			return nil
		case m := <-d.ch:
			e, ok := m.(Event)
			if !ok {
				continue
			}
			d.dispatch(e)
		}
	}
}

// Close stops the broadcaster.
func (d *Dispatcher) Close() error {
	d.startDiscard()

	d.closeMu.Lock()
	if d.closed {
		d.closeMu.Unlock()
		return nil
	}
	d.closed = true
	d.closeMu.Unlock()

	d.b.Unregister(d.ch)
	err := d.b.Close()
	close(d.done)

	return err
}

func (d *Dispatcher) startDiscard() {
	d.discardOnce.Do(func() { go d.discard() })
}

// discard drains undelivered events so the broadcaster never blocks Fire.
func (d *Dispatcher) discard() {
	for {
		select {
		case <-d.done:
			return
		case m := <-d.ch:
			if e, ok := m.(Event); ok && d.log != nil {
				_ = d.log.Log("level", "warn", "msg", "event dropped", "event", e.Name)
			}
		}
	}
}

func (d *Dispatcher) dispatch(e Event) {
	d.mu.RLock()
	listeners := d.listeners[e.Name]
	d.mu.RUnlock()

	for _, l := range listeners {
		if err := l(e.Payload...); err != nil && d.log != nil {
			_ = d.log.Log("level", "error", "msg", "event listener failed", "event", e.Name, "error", err)
		}
	}
}
