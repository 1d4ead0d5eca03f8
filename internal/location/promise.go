package location

import "sync"

type result[T any] struct {
	value T
	err   error
}

// promise is a single-assignment completion: the first settle wins, later ones are dropped
type promise[T any] struct {
	once sync.Once
	ch   chan result[T]
}

func newPromise[T any]() *promise[T] {
	return &promise[T]{ch: make(chan result[T], 1)}
}

func (p *promise[T]) resolve(v T) {
	p.once.Do(func() { p.ch <- result[T]{value: v} })
}

func (p *promise[T]) reject(err error) {
	p.once.Do(func() { p.ch <- result[T]{err: err} })
}
