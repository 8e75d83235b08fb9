// Package worker runs layout passes off the render thread.
//
// A layout pass owns its request for its whole duration and returns a
// freshly allocated Result, so results can be handed across goroutines
// without locking.
package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-cad/internal/layout"
	"github.com/Faultbox/midgard-cad/internal/logger"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("worker pool closed")

// Future is the pending result of one submitted layout pass.
type Future struct {
	done   chan struct{}
	result *layout.Result
	err    error
}

// Done is closed when the result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the pass completes or ctx is cancelled.
func (f *Future) Wait(ctx context.Context) (*layout.Result, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Future) resolve(res *layout.Result, err error) {
	f.result, f.err = res, err
	close(f.done)
}

type job struct {
	ctx    context.Context
	req    layout.Request
	future *Future
}

// Pool is a fixed set of goroutines running layout passes.
type Pool struct {
	engine *layout.Engine
	jobs   chan job
	log    *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool starts size workers. Values below 1 mean 1.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		engine: layout.NewEngine(),
		jobs:   make(chan job, size),
		log:    logger.Named("worker"),
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.run()
	}
	p.log.Debug("worker pool started", zap.Int("size", size))
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for j := range p.jobs {
		if err := j.ctx.Err(); err != nil {
			j.future.resolve(nil, err)
			continue
		}
		res, err := p.engine.Run(j.req)
		if err != nil {
			p.log.Warn("layout pass failed", zap.Error(err))
		}
		j.future.resolve(res, err)
	}
}

// Submit queues a layout pass. It blocks while every worker is busy and
// the queue is full, unless ctx is cancelled first.
func (p *Pool) Submit(ctx context.Context, req layout.Request) *Future {
	f := &Future{done: make(chan struct{})}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		f.resolve(nil, ErrClosed)
		return f
	}
	select {
	case p.jobs <- job{ctx: ctx, req: req, future: f}:
	case <-ctx.Done():
		f.resolve(nil, ctx.Err())
	}
	return f
}

// LayoutAll lays out independent assets concurrently and returns the
// results in request order. The first failure cancels the rest.
func (p *Pool) LayoutAll(ctx context.Context, reqs []layout.Request) ([]*layout.Result, error) {
	results := make([]*layout.Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := p.Submit(gctx, req).Wait(gctx)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Close stops accepting work and waits for queued passes to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
