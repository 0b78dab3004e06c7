package router

import (
	"context"
	"sync"
)

// ChannelQueue serializes mention prompts per channel so replies arrive in
// the order the prompts were asked. A channel's entry lives only while
// someone holds or waits for it.
type ChannelQueue struct {
	mu    sync.Mutex
	slots map[string]*channelSlot
}

type channelSlot struct {
	ch   chan struct{}
	refs int
}

// NewChannelQueue creates an empty ChannelQueue.
func NewChannelQueue() *ChannelQueue {
	return &ChannelQueue{slots: make(map[string]*channelSlot)}
}

func (q *ChannelQueue) join(channelID string) *channelSlot {
	q.mu.Lock()
	defer q.mu.Unlock()
	s, ok := q.slots[channelID]
	if !ok {
		s = &channelSlot{ch: make(chan struct{}, 1)}
		q.slots[channelID] = s
	}
	s.refs++
	return s
}

// leave drops one reference and forgets the channel once none remain.
// Callers hold q.mu.
func (q *ChannelQueue) leave(channelID string, s *channelSlot) {
	s.refs--
	if s.refs == 0 {
		delete(q.slots, channelID)
	}
}

// Acquire waits for the channel's slot. It gives up when ctx is done.
func (q *ChannelQueue) Acquire(ctx context.Context, channelID string) error {
	s := q.join(channelID)
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		q.mu.Lock()
		q.leave(channelID, s)
		q.mu.Unlock()
		return ctx.Err()
	}
}

// Release frees the channel's slot for the next waiter. Releasing a slot
// that is not held does nothing.
func (q *ChannelQueue) Release(channelID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	s, ok := q.slots[channelID]
	if !ok {
		return
	}
	select {
	case <-s.ch:
		q.leave(channelID, s)
	default:
	}
}

// tracked returns how many channels currently have an entry.
func (q *ChannelQueue) tracked() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.slots)
}
