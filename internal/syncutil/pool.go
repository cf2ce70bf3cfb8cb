package syncutil

import "sync"

// Pool is a type-safe wrapper around [sync.Pool].
type Pool[T any] struct {
	pool sync.Pool
	New  func() T
}

func (p *Pool[T]) Get() T {
	v := p.pool.Get()
	if v == nil {
		if p.New == nil {
			var zero T
			return zero
		}
		return p.New()
	}
	return v.(T)
}

func (p *Pool[T]) Put(t T) {
	p.pool.Put(t)
}
