package channel

import "context"

// Buffered queues up to size values before Send blocks.
type Buffered[T any] struct {
	ch chan T
}

func NewBuffered[T any](size int) *Buffered[T] {
	return &Buffered[T]{ch: make(chan T, size)}
}

func (b *Buffered[T]) Send(ctx context.Context, v T) error {
	return send(ctx, b.ch, v)
}

// TrySend fails when the buffer is full.
func (b *Buffered[T]) TrySend(v T) bool {
	return trySend(b.ch, v)
}

func (b *Buffered[T]) Receive() <-chan T {
	return b.ch
}

// Len returns the number of queued values.
func (b *Buffered[T]) Len() int {
	return len(b.ch)
}

func (b *Buffered[T]) Close() {
	close(b.ch)
}
