package bot

import "sync"

// RegisterHandler appends a handler to the slice under the given mutex.
func RegisterHandler[T any](mu *sync.RWMutex, handlers *[]T, handler T) {
	mu.Lock()
	defer mu.Unlock()
	*handlers = append(*handlers, handler)
}

// CopyHandlers returns a snapshot of the handler slice under a read lock so
// callbacks can run without holding it.
func CopyHandlers[T any](mu *sync.RWMutex, handlers []T) []T {
	mu.RLock()
	defer mu.RUnlock()
	return append(make([]T, 0, len(handlers)), handlers...)
}
