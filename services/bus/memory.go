package bus

import (
	"log"
	"sync"
)

// Hub is an in-process registry of named buses. Every MemoryTransport
// attached to the same hub and name sees the same traffic, which is how
// several participants share a bus inside one process.
type Hub struct {
	mu    sync.Mutex
	boxes map[string]map[*mailbox]struct{}
}

func NewHub() *Hub {
	return &Hub{boxes: make(map[string]map[*mailbox]struct{})}
}

// Attach opens a new handle on the bus called name
func (h *Hub) Attach(name string) *MemoryTransport {
	return &MemoryTransport{
		hub:  h,
		name: name,
		subs: make(map[*mailbox]struct{}),
	}
}

func (h *Hub) add(key string, box *mailbox) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.boxes[key] == nil {
		h.boxes[key] = make(map[*mailbox]struct{})
	}
	h.boxes[key][box] = struct{}{}
}

func (h *Hub) remove(key string, box *mailbox) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if boxes, ok := h.boxes[key]; ok {
		delete(boxes, box)
		if len(boxes) == 0 {
			delete(h.boxes, key)
		}
	}
}

// broadcast enqueues under the hub lock, so two frames from one publisher
// land in every mailbox in the order they were published.
func (h *Hub) broadcast(key string, frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for box := range h.boxes[key] {
		box.push(frame)
	}
}

// MemoryTransport is one handle on a Hub bus
type MemoryTransport struct {
	hub  *Hub
	name string

	mu     sync.Mutex
	subs   map[*mailbox]struct{}
	closed bool
}

func (t *MemoryTransport) key(topic string) string {
	return t.name + "/" + topic
}

func (t *MemoryTransport) Publish(topic string, frame []byte) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		log.Printf("[BUS-ERROR] Publish on closed bus %s ignored", t.name)
		return
	}
	t.hub.broadcast(t.key(topic), append([]byte(nil), frame...))
}

func (t *MemoryTransport) Subscribe(topic string, handler Handler) (Subscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrClosed
	}
	box := newMailbox(t, topic, handler)
	t.subs[box] = struct{}{}
	t.hub.add(t.key(topic), box)
	go box.run()
	return box, nil
}

func (t *MemoryTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	boxes := make([]*mailbox, 0, len(t.subs))
	for box := range t.subs {
		boxes = append(boxes, box)
	}
	t.mu.Unlock()

	for _, box := range boxes {
		box.Unsubscribe()
	}
	return nil
}

func (t *MemoryTransport) forget(box *mailbox) {
	t.mu.Lock()
	delete(t.subs, box)
	t.mu.Unlock()
	t.hub.remove(t.key(box.topic), box)
}

// mailbox is an unbounded FIFO drained by its own goroutine, so a slow
// subscriber never stalls publishers or other subscribers.
type mailbox struct {
	owner   *MemoryTransport
	topic   string
	handler Handler

	mu    sync.Mutex
	queue [][]byte
	wake  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func newMailbox(owner *MemoryTransport, topic string, handler Handler) *mailbox {
	return &mailbox{
		owner:   owner,
		topic:   topic,
		handler: handler,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (m *mailbox) push(frame []byte) {
	m.mu.Lock()
	m.queue = append(m.queue, frame)
	m.mu.Unlock()
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *mailbox) pop() ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return nil, false
	}
	frame := m.queue[0]
	m.queue[0] = nil
	m.queue = m.queue[1:]
	return frame, true
}

func (m *mailbox) run() {
	for {
		select {
		case <-m.done:
			return
		case <-m.wake:
		}
		for {
			select {
			case <-m.done:
				return
			default:
			}
			frame, ok := m.pop()
			if !ok {
				break
			}
			deliver(m.topic, m.handler, frame)
		}
	}
}

func (m *mailbox) Unsubscribe() {
	m.once.Do(func() {
		m.owner.forget(m)
		close(m.done)
	})
}
