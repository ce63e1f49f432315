package main

import (
	"context"
	"sync"
	"time"
)

// tickSource returns a channel of ticks and a function that stops it.
type tickSource func(d time.Duration) (<-chan time.Time, func())

func newTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// repeatingTask calls fn on every tick until cancelled. fn receives the
// task's context and must check it before mutating anything, since a tick
// may already be in flight when Cancel is called.
type repeatingTask struct {
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

func startRepeatingTask(parent context.Context, wg *sync.WaitGroup, source tickSource, every time.Duration, fn func(context.Context, time.Time)) *repeatingTask {
	ctx, cancel := context.WithCancel(parent)
	t := &repeatingTask{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	ticks, stop := source(every)
	wg.Go(func() {
		defer close(t.done)
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticks:
				if ctx.Err() != nil {
					return
				}
				fn(ctx, now)
			}
		}
	})
	return t
}

// Cancel stops the task. Safe to call more than once and from inside fn.
func (t *repeatingTask) Cancel() {
	t.once.Do(t.cancel)
}

func (t *repeatingTask) Done() <-chan struct{} {
	return t.done
}

func (t *repeatingTask) Active() bool {
	return t.ctx.Err() == nil
}
