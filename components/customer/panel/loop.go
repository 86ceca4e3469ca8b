package panel

import (
	"context"
	"log/slog"
	"sync"
)

// EventLoop runs page work on a single goroutine in FIFO order. Blocking work
// is started with Go and its continuation is posted back onto the loop, so DOM
// state is only ever touched from the loop goroutine.
type EventLoop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	done    chan struct{}
	stopped bool
	pending int
	waiters []chan struct{}
	logger  *slog.Logger
}

// NewEventLoop starts a loop. Call Close to stop it.
func NewEventLoop(logger *slog.Logger) *EventLoop {
	if logger == nil {
		logger = discardLogger()
	}
	l := &EventLoop{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
	go l.run()
	return l
}

// Post queues fn to run on the loop. Posting after Close is a no-op.
func (l *EventLoop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.pending++
	l.mu.Unlock()
	l.signal()
}

// Go runs work on its own goroutine and posts the continuation it returns
// back onto the loop. The loop counts the work as in flight until the
// continuation has run.
func (l *EventLoop) Go(work func() func()) {
	if work == nil {
		return
	}
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.pending++
	l.mu.Unlock()
	go func() {
		then := work()
		l.Post(then)
		l.release()
	}()
}

// Drain blocks until no queued tasks or in-flight work remain, or ctx ends.
func (l *EventLoop) Drain(ctx context.Context) error {
	l.mu.Lock()
	if l.pending == 0 {
		l.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	l.waiters = append(l.waiters, ch)
	l.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the loop after the task currently executing, dropping queued work.
func (l *EventLoop) Close() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	l.pending -= len(l.queue)
	l.queue = nil
	var waiters []chan struct{}
	if l.pending == 0 {
		waiters = l.waiters
		l.waiters = nil
	}
	l.mu.Unlock()
	close(l.done)
	for _, ch := range waiters {
		close(ch)
	}
}

func (l *EventLoop) run() {
	for {
		select {
		case <-l.done:
			return
		case <-l.wake:
		}
		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			l.exec(fn)
			l.release()
		}
	}
}

func (l *EventLoop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped || len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

// exec isolates task panics so one failing handler cannot stop the page.
func (l *EventLoop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("page task panicked", "panic", r)
		}
	}()
	fn()
}

func (l *EventLoop) release() {
	l.mu.Lock()
	l.pending--
	var waiters []chan struct{}
	if l.pending == 0 {
		waiters = l.waiters
		l.waiters = nil
	}
	l.mu.Unlock()
	for _, ch := range waiters {
		close(ch)
	}
}

func (l *EventLoop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
