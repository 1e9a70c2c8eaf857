package bundle

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

type job struct {
	ctx  context.Context
	fn   func() error
	done chan error
}

// worker runs jobs one at a time on a single goroutine locked to its OS
// thread. Every native call goes through it.
type worker struct {
	jobs   chan job
	quit   chan struct{}
	exited chan struct{}
	logger *zap.Logger

	stopOnce sync.Once
	// final runs on the worker thread after the queue drains.
	final    func() error
	finalErr error
}

func newWorker(queueSize int, logger *zap.Logger) *worker {
	return &worker{
		jobs:   make(chan job, queueSize),
		quit:   make(chan struct{}),
		exited: make(chan struct{}),
		logger: logger,
	}
}

func (w *worker) start() {
	go w.loop()
}

func (w *worker) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(w.exited)

	w.logger.Info("PDFium worker started")
	for {
		select {
		case j := <-w.jobs:
			w.run(j)
		case <-w.quit:
			for {
				select {
				case j := <-w.jobs:
					w.run(j)
				default:
					if w.final != nil {
						w.finalErr = safeCall(w.final)
					}
					w.logger.Info("PDFium worker stopped")
					return
				}
			}
		}
	}
}

func (w *worker) run(j job) {
	// A job whose caller gave up before it started is skipped. Once
	// started it runs to completion.
	if err := j.ctx.Err(); err != nil {
		j.done <- err
		return
	}
	j.done <- safeCall(j.fn)
}

func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfium job panicked: %v", r)
		}
	}()
	return fn()
}

// do queues fn and waits for its result.
func (w *worker) do(ctx context.Context, fn func() error) error {
	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}

	select {
	case w.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	case <-w.quit:
		return ErrManagerStopped
	}

	select {
	case err := <-j.done:
		return err
	case <-w.exited:
		// The job may have been queued after the final drain.
		select {
		case err := <-j.done:
			return err
		default:
			return ErrManagerStopped
		}
	}
}

// stop drains the queue, runs final on the worker thread and waits for
// the goroutine to exit.
func (w *worker) stop(ctx context.Context, final func() error) error {
	w.stopOnce.Do(func() {
		w.final = final
		close(w.quit)
	})

	select {
	case <-w.exited:
		return w.finalErr
	case <-ctx.Done():
		return ctx.Err()
	}
}
