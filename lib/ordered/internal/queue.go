package internal

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrQueueClosed is the result of tasks added after Close
var ErrQueueClosed = errors.New("queue closed")

// Task is a unit of work run by a Queue
type Task func() error

// task is a queued Task together with the channel that receives its result
type task struct {
	run    Task
	result chan error
}

// node represents a single element in the queue
type node struct {
	value *task
	next  atomic.Pointer[node]
}

// Queue runs tasks one after another in the order they were added.
// Producers append to a lock-free linked list, a single consumer goroutine
// pops and runs the tasks. Every added task resolves exactly once.
type Queue struct {
	head     atomic.Pointer[node]
	tail     atomic.Pointer[node]
	consumer sync.WaitGroup

	// gate orders Add against Close: once Close holds it, no push is in flight
	gate   sync.RWMutex
	closed atomic.Bool

	// mu and cond park the consumer while the list is empty
	mu   sync.Mutex
	cond *sync.Cond
}

// NewQueue creates a queue and starts its consumer
func NewQueue() *Queue {
	sentinel := &node{}

	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	q.consumer.Add(1)
	go q.consume()

	return q
}

// Add appends fn and returns a channel that receives its result once.
// After Close the channel immediately holds ErrQueueClosed.
// Waiting on the channel from inside a queued task deadlocks the queue.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (q *Queue) Add(fn Task) <-chan error {
	t := &task{run: fn, result: make(chan error, 1)}

	q.gate.RLock()
	if q.closed.Load() {
		q.gate.RUnlock()
		t.result <- ErrQueueClosed
		return t.result
	}
	q.push(t)
	q.gate.RUnlock()

	// Signal under the lock, the consumer checks the list and waits under the same lock
	q.mu.Lock()
	q.cond.Signal()
	q.mu.Unlock()

	return t.result
}

// Do adds fn and waits for its result
func (q *Queue) Do(fn Task) error {
	return <-q.Add(fn)
}

// push appends t to the linked list
func (q *Queue) push(t *task) {
	newNode := &node{value: t}

	var backoff uint8
	for {
		tailNode := q.tail.Load()

		next := tailNode.next.Load()
		if next == nil {
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// a failed CAS means another producer already moved the tail
				q.tail.CompareAndSwap(tailNode, newNode)
				return
			}
		} else {
			// help a producer that appended but has not moved the tail yet
			q.tail.CompareAndSwap(tailNode, next)
		}

		// spin first, yield under heavier contention
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// drain runs every task currently in the list and returns how many ran
func (q *Queue) drain() int {
	n := 0
	for {
		head := q.head.Load()
		next := head.next.Load()
		if next == nil {
			return n
		}

		t := next.value
		q.head.Store(next)
		next.value = nil

		t.result <- runTask(t.run)
		n++
	}
}

// runTask runs fn and turns a panic into an error, so the task still resolves
func runTask(fn Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return fn()
}

// consume runs tasks until the queue is closed and empty
func (q *Queue) consume() {
	defer q.consumer.Done()

	for {
		// closed is read before draining: every push that happened before Close is seen by drain
		closed := q.closed.Load()
		if q.drain() > 0 {
			continue
		}
		if closed {
			return
		}

		q.mu.Lock()
		if q.head.Load().next.Load() == nil && !q.closed.Load() {
			q.cond.Wait()
		}
		q.mu.Unlock()
	}
}

// Close stops accepting tasks, waits until every queued task ran and stops the consumer.
// Calling Close more than once is a no-op.
func (q *Queue) Close() {
	q.gate.Lock()
	alreadyClosed := q.closed.Swap(true)
	q.gate.Unlock()

	if !alreadyClosed {
		q.mu.Lock()
		q.cond.Signal()
		q.mu.Unlock()
	}

	q.consumer.Wait()
}

// IsClosed returns true if the queue is closed.
func (q *Queue) IsClosed() bool {
	return q.closed.Load()
}

// Len returns an approximate count of the tasks waiting in the queue.
// This is O(n) and should only be used for debugging.
func (q *Queue) Len() int {
	count := 0
	current := q.head.Load()
	for {
		next := current.next.Load()
		if next == nil {
			return count
		}
		count++
		current = next
	}
}
