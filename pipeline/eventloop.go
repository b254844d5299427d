// Package pipeline provides the minimal single-threaded event loop, promise
// and handler-chain substrate that the sctp channel is embedded in. The
// distilled design this project implements treats these as external
// collaborators of a larger asynchronous networking framework; since no such
// framework ships in this module's dependency set, this package supplies the
// narrow slice of it the channel actually drives against.
package pipeline

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// EventLoop is a single goroutine that owns a FIFO task queue. A Channel is
// pinned to exactly one EventLoop for its entire lifetime; all state
// transitions, socket I/O and notification dispatch for that channel run on
// the loop's goroutine.
type EventLoop struct {
	tasks   chan func()
	goid    atomic.Value // uint64, set once the loop goroutine starts
	closed  atomic.Bool
	done    chan struct{}
	log     *logrus.Entry
}

// NewEventLoop starts a new event loop with the given task queue depth.
func NewEventLoop(queueDepth int) *EventLoop {
	if queueDepth <= 0 {
		queueDepth = 256
	}
	el := &EventLoop{
		tasks: make(chan func(), queueDepth),
		done:  make(chan struct{}),
		log:   logrus.WithField("component", "eventloop"),
	}
	go el.run()
	return el
}

func (el *EventLoop) run() {
	el.goid.Store(currentGoroutineID())
	defer close(el.done)
	for task := range el.tasks {
		el.runTask(task)
	}
}

func (el *EventLoop) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			el.log.WithField("panic", r).Error("task panicked")
		}
	}()
	task()
}

// InEventLoop reports whether the calling goroutine is the loop's own
// goroutine. Every public Channel operation consults this before deciding
// whether to execute inline or re-post as a task.
func (el *EventLoop) InEventLoop() bool {
	id, ok := el.goid.Load().(uint64)
	return ok && id == currentGoroutineID()
}

// Submit enqueues task for execution on the loop. If Submit is called from
// the loop's own goroutine and the queue has room, the task still goes
// through the queue to preserve FIFO ordering relative to tasks already
// pending.
func (el *EventLoop) Submit(task func()) error {
	if el.closed.Load() {
		return ErrEventLoopClosed
	}
	select {
	case el.tasks <- task:
		return nil
	default:
	}
	// Queue momentarily full: block, but still respect a concurrent close.
	select {
	case el.tasks <- task:
		return nil
	case <-el.done:
		return ErrEventLoopClosed
	}
}

// Execute runs fn on the loop, inline if the caller is already on the loop,
// or via Submit otherwise, and returns a Future observing its completion.
func Execute[T any](el *EventLoop, fn func() (T, error)) *Future[T] {
	p := NewPromise[T]()
	run := func() {
		v, err := fn()
		if err != nil {
			p.Fail(err)
		} else {
			p.Complete(v)
		}
	}
	if el.InEventLoop() {
		run()
		return p.Future()
	}
	if err := el.Submit(run); err != nil {
		p.Fail(err)
	}
	return p.Future()
}

// Shutdown drains no further tasks; already queued tasks still run. Shutdown
// blocks until the loop goroutine exits.
func (el *EventLoop) Shutdown() {
	if !el.closed.CompareAndSwap(false, true) {
		return
	}
	close(el.tasks)
	<-el.done
}

// ErrEventLoopClosed is returned by Submit once Shutdown has been called.
var ErrEventLoopClosed = fmt.Errorf("pipeline: event loop closed")

func currentGoroutineID() uint64 {
	// Mirrors the debug-only goroutine identification technique used
	// elsewhere in this module's socket layer, kept private to this package.
	var buf [64]byte
	n := runtimeStack(buf[:])
	var id uint64
	fmt.Sscanf(string(buf[:n]), "goroutine %d ", &id)
	return id
}
