package infra

import (
	"context"
	"sync"
	"time"
)

// RenderPool bounds concurrent PDF rendering to size and keeps released
// renderers around for reuse until they sit idle longer than idleTimeout.
type RenderPool struct {
	mu          sync.Mutex
	idle        []*Renderer
	sem         chan struct{}
	idleTimeout time.Duration
	now         func() time.Time
}

func NewRenderPool(size int, idleTimeout time.Duration) *RenderPool {
	if size <= 0 {
		size = 1
	}
	return &RenderPool{
		sem:         make(chan struct{}, size),
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// Acquire blocks until a slot is free or ctx is done.
func (p *RenderPool) Acquire(ctx context.Context) (*Renderer, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.idle); n > 0 {
		r := p.idle[n-1]
		p.idle = p.idle[:n-1]
		return r, nil
	}
	return NewRenderer(), nil
}

// Release returns r to the pool. Every successful Acquire must be paired
// with exactly one Release.
func (p *RenderPool) Release(r *Renderer) {
	p.mu.Lock()
	r.lastUsed = p.now()
	p.idle = append(p.idle, r)
	p.mu.Unlock()
	<-p.sem
}

// EvictIdle drops renderers idle for longer than the timeout and returns
// how many were dropped.
func (p *RenderPool) EvictIdle() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	cutoff := p.now().Add(-p.idleTimeout)
	kept := p.idle[:0]
	evicted := 0
	for _, r := range p.idle {
		if r.lastUsed.Before(cutoff) {
			evicted++
			continue
		}
		kept = append(kept, r)
	}
	for i := len(kept); i < len(p.idle); i++ {
		p.idle[i] = nil
	}
	p.idle = kept
	return evicted
}

// Stats reports idle renderers and slots currently in use.
func (p *RenderPool) Stats() (idle, inUse int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle), len(p.sem)
}
