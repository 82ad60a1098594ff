package store

import "sync"

type listener struct {
	tag    string
	handle func(action Action, depth int)
	stop   func()
}

// dispatcher routes actions to listeners in registration order.
type dispatcher struct {
	mu        sync.RWMutex
	closed    bool
	listeners []*listener
}

func (d *dispatcher) add(l *listener) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}
	d.listeners = append(d.listeners, l)
	return true
}

func (d *dispatcher) matching(tag string) []*listener {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []*listener
	for _, l := range d.listeners {
		if l.tag == tag {
			out = append(out, l)
		}
	}
	return out
}

func (d *dispatcher) count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.listeners)
}

func (d *dispatcher) close() []*listener {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	out := d.listeners
	d.listeners = nil
	return out
}

func (d *dispatcher) remove(target *listener) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, l := range d.listeners {
		if l == target {
			d.listeners = append(d.listeners[:i:i], d.listeners[i+1:]...)
			return
		}
	}
}
