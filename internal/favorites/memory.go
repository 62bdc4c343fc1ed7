package favorites

import (
	"context"
	"sync"
)

// MemoryKV is an in-process key-value space. Each Handle behaves like one
// browser tab over shared storage: it sees every write, but is only told about
// writes made through other handles.
type MemoryKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	handles map[*MemoryHandle]struct{}
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		data:    make(map[string][]byte),
		handles: make(map[*MemoryHandle]struct{}),
	}
}

// Handle returns a new view of the shared space.
func (kv *MemoryKV) Handle() *MemoryHandle {
	h := &MemoryHandle{kv: kv}
	kv.mu.Lock()
	kv.handles[h] = struct{}{}
	kv.mu.Unlock()
	return h
}

// MemoryHandle implements Backend and Watcher.
type MemoryHandle struct {
	kv       *MemoryKV
	mu       sync.Mutex
	watchers []chan string
}

func (h *MemoryHandle) Get(_ context.Context, key string) ([]byte, error) {
	h.kv.mu.Lock()
	defer h.kv.mu.Unlock()
	v, ok := h.kv.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (h *MemoryHandle) Put(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	h.kv.mu.Lock()
	h.kv.data[key] = stored
	others := make([]*MemoryHandle, 0, len(h.kv.handles))
	for other := range h.kv.handles {
		if other != h {
			others = append(others, other)
		}
	}
	h.kv.mu.Unlock()

	for _, other := range others {
		other.signal(key)
	}
	return nil
}

// signal never blocks. A full buffer already holds a pending reload.
func (h *MemoryHandle) signal(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.watchers {
		select {
		case ch <- key:
		default:
		}
	}
}

func (h *MemoryHandle) Watch(ctx context.Context, fn func(key string)) error {
	ch := make(chan string, 16)
	h.mu.Lock()
	h.watchers = append(h.watchers, ch)
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		for i, w := range h.watchers {
			if w == ch {
				h.watchers = append(h.watchers[:i], h.watchers[i+1:]...)
				break
			}
		}
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case key := <-ch:
			fn(key)
		}
	}
}

// Close detaches the handle from the shared space.
func (h *MemoryHandle) Close() error {
	h.kv.mu.Lock()
	delete(h.kv.handles, h)
	h.kv.mu.Unlock()
	return nil
}
