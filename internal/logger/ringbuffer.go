package logger

import "sync"

// RingBuffer keeps the last size items pushed to it.
type RingBuffer[T any] struct {
	mu    sync.RWMutex
	items []T
	next  int
	full  bool
}

// NewRingBuffer creates a buffer holding at most capacity items.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingBuffer[T]{items: make([]T, capacity)}
}

// Push stores item, evicting the oldest one when the buffer is full.
func (r *RingBuffer[T]) Push(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.next] = item
	r.next++
	if r.next == len(r.items) {
		r.next = 0
		r.full = true
	}
}

// Len returns the number of stored items.
func (r *RingBuffer[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.full {
		return len(r.items)
	}
	return r.next
}

// GetAll returns every stored item, oldest first.
func (r *RingBuffer[T]) GetAll() []T {
	return r.Newest(0, nil)
}

// Newest returns up to limit of the most recent items accepted by keep,
// oldest first. A limit of zero or less means no limit and a nil keep
// accepts everything.
func (r *RingBuffer[T]) Newest(limit int, keep func(T) bool) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.next
	if r.full {
		n = len(r.items)
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]T, 0, limit)
	for i := 1; i <= n && len(out) < limit; i++ {
		item := r.items[(r.next-i+len(r.items))%len(r.items)]
		if keep == nil || keep(item) {
			out = append(out, item)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
