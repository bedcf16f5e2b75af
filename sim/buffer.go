package sim

import "log"

// HookPosBufPush marks when an element is pushed into a buffer.
var HookPosBufPush = &HookPos{Name: "Buffer Push"}

// HookPosBufPop marks when an element is popped from a buffer.
var HookPosBufPop = &HookPos{Name: "Buffer Pop"}

// A Buffer is a bounded fifo queue. Pushing into a full buffer is a protocol
// violation and panics; callers must check CanPush first.
type Buffer interface {
	Named
	Hookable

	CanPush() bool
	Push(e any)
	Pop() any
	Peek() any
	Capacity() int
	Size() int

	// Clear removes all elements in the buffer.
	Clear()
}

// NewBuffer creates a buffer with the given capacity.
func NewBuffer(name string, capacity int) Buffer {
	NameMustBeValid(name)

	return &bufferImpl{
		name:     name,
		capacity: capacity,
	}
}

// bufferImpl is a ring over a lazily allocated slice, so buffers that are
// drained every tick do not reallocate.
type bufferImpl struct {
	HookableBase

	name     string
	capacity int

	ring  []any
	head  int
	count int
}

func (b *bufferImpl) Name() string {
	return b.name
}

func (b *bufferImpl) CanPush() bool {
	return b.count < b.capacity
}

func (b *bufferImpl) Push(e any) {
	if b.count >= b.capacity {
		log.Panic("buffer overflow")
	}

	if b.ring == nil {
		b.ring = make([]any, b.capacity)
	}

	b.ring[(b.head+b.count)%b.capacity] = e
	b.count++

	if b.NumHooks() > 0 {
		b.InvokeHook(HookCtx{
			Domain: b,
			Pos:    HookPosBufPush,
			Item:   e,
		})
	}
}

func (b *bufferImpl) Pop() any {
	if b.count == 0 {
		return nil
	}

	e := b.ring[b.head]
	b.ring[b.head] = nil
	b.head = (b.head + 1) % b.capacity
	b.count--

	if b.NumHooks() > 0 {
		b.InvokeHook(HookCtx{
			Domain: b,
			Pos:    HookPosBufPop,
			Item:   e,
		})
	}

	return e
}

func (b *bufferImpl) Peek() any {
	if b.count == 0 {
		return nil
	}

	return b.ring[b.head]
}

func (b *bufferImpl) Capacity() int {
	return b.capacity
}

func (b *bufferImpl) Size() int {
	return b.count
}

func (b *bufferImpl) Clear() {
	b.ring = nil
	b.head = 0
	b.count = 0
}
