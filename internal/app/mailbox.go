package app

import (
	"sync"

	"github.com/bft-labs/tracescope/internal/domain"
)

// Mailbox is an unbounded, ordered event queue between the engine and the
// consumer. Emit never blocks; a dispatcher goroutine started by Run delivers
// events to the handler in emission order.
type Mailbox struct {
	handler func(domain.Event)

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []domain.Event
	closed bool
}

// NewMailbox creates a mailbox delivering to handler. A nil handler drops
// every event.
func NewMailbox(handler func(domain.Event)) *Mailbox {
	if handler == nil {
		handler = func(domain.Event) {}
	}
	m := &Mailbox{handler: handler}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Emit enqueues ev. Events emitted after Close are dropped.
func (m *Mailbox) Emit(ev domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.queue = append(m.queue, ev)
	m.cond.Signal()
}

// Run delivers events until Close is called and the queue is drained.
func (m *Mailbox) Run() {
	for {
		m.mu.Lock()
		for len(m.queue) == 0 && !m.closed {
			m.cond.Wait()
		}
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return
		}
		batch := m.queue
		m.queue = nil
		m.mu.Unlock()

		for _, ev := range batch {
			m.handler(ev)
		}
	}
}

// Close stops accepting events. Run returns once queued events are delivered.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cond.Broadcast()
}

// Pending returns the number of undelivered events.
func (m *Mailbox) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *Mailbox) reopen() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = false
}
