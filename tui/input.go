package tui

import (
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
)

// keyQueue is a bounded, single-producer queue of key events, adapted
// from the teacher's nonBlockingChan: once capacity is exceeded, sends
// are dropped rather than blocking the producer goroutine, so a burst of
// keystrokes during a slow redraw never stalls screen.PollEvent.
type keyQueue struct {
	ch       chan *tcell.EventKey
	count    atomic.Int32
	capacity int32
}

func newKeyQueue(capacity int32) *keyQueue {
	return &keyQueue{
		ch:       make(chan *tcell.EventKey, capacity),
		capacity: capacity,
	}
}

func (q *keyQueue) send(e *tcell.EventKey) bool {
	newCount := q.count.Add(1)
	if newCount > q.capacity {
		q.count.Add(-1)
		return false
	}

	q.ch <- e
	return true
}

// tryReceive returns the next queued key without blocking, used while
// the control loop is running Free.
func (q *keyQueue) tryReceive() (*tcell.EventKey, bool) {
	select {
	case e, ok := <-q.ch:
		if ok {
			q.count.Add(-1)
		}
		return e, ok
	default:
		return nil, false
	}
}

// receive blocks for the next queued key, used while the control loop is
// Interactive.
func (q *keyQueue) receive() (*tcell.EventKey, bool) {
	e, ok := <-q.ch
	if ok {
		q.count.Add(-1)
	}
	return e, ok
}

// startKeyReader launches the single background goroutine that owns
// screen.PollEvent. It forwards key events onto q until the screen
// reports a nil event (finalized) - there is no explicit shutdown
// signal beyond that, matching the teacher's reader-goroutine shape in
// its console device: one producer, no shared state besides the queue.
func startKeyReader(screen tcell.Screen, q *keyQueue) {
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			if key, ok := ev.(*tcell.EventKey); ok {
				q.send(key)
			}
		}
	}()
}
