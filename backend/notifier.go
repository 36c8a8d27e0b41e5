package backend

import "sync"

// Notifier implements Subscriber and is embedded by connections.
type Notifier struct {
	mu       sync.Mutex
	handlers []func(error)
}

func (n *Notifier) OnClosed(handler func(error)) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.handlers = append(n.handlers, handler)
}

func (n *Notifier) UnsubscribeAll() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.handlers = nil
}

// NotifyClosed calls every subscribed handler outside of the lock.
func (n *Notifier) NotifyClosed(err error) {
	n.mu.Lock()
	handlers := make([]func(error), len(n.handlers))
	copy(handlers, n.handlers)
	n.mu.Unlock()

	for _, handler := range handlers {
		handler(err)
	}
}

// Subscribers returns the number of registered handlers.
func (n *Notifier) Subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.handlers)
}
