// Package heap provides the allocation interception layer of the toolkit.
//
// An Interceptor stands in for the process allocator the way a C-level
// malloc override would: it satisfies the Arrow memory.Allocator contract,
// tags every block it hands out with a hidden header, and reports the
// requested byte counts to a callback registry. Blocks whose preceding
// memory does not carry the interceptor's tag are treated as foreign and
// forwarded to the underlying allocator untouched, which makes it safe to
// pair the interceptor with allocation paths it never saw.
//
// Only traffic that flows through an Interceptor is observable. Code that
// allocates with plain make is invisible to all observers, exactly like a
// process that was never linked against the malloc overrides: absent
// tracking is indistinguishable from absent allocations.
package heap

import (
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/pdinklag/pm/callback"
)

// Interceptor manages allocations on behalf of an underlying unmanaged
// allocator and attributes them to the observers registered with its
// registry. The zero value is not usable; construct with NewInterceptor.
type Interceptor struct {
	mem      memory.Allocator
	registry *callback.Registry
}

var _ memory.Allocator = (*Interceptor)(nil)

// NewInterceptor creates an interceptor on top of the given underlying
// allocator, reporting to the given registry. A nil underlying allocator
// defaults to memory.NewGoAllocator(); a nil registry defaults to the
// process-wide callback.Default().
func NewInterceptor(underlying memory.Allocator, registry *callback.Registry) *Interceptor {
	if underlying == nil {
		underlying = memory.NewGoAllocator()
	}
	if registry == nil {
		registry = callback.Default()
	}
	return &Interceptor{mem: underlying, registry: registry}
}

// Registry returns the callback registry this interceptor reports to.
func (i *Interceptor) Registry() *callback.Registry { return i.registry }

// Underlying returns the unmanaged allocator backing this interceptor.
func (i *Interceptor) Underlying() memory.Allocator { return i.mem }

// Allocate returns a managed block of the given size. A zero size yields
// nil without touching the underlying allocator. An allocation failure from
// the underlying allocator (a nil buffer) propagates unchanged and is not
// reported to any observer. On success, observers are notified with the
// requested size, never the header-inflated one.
func (i *Interceptor) Allocate(size int) []byte {
	if size <= 0 {
		return nil
	}
	raw := i.mem.Allocate(size + headerSize)
	if raw == nil {
		return nil
	}
	payload := raw[headerSize : headerSize+size : headerSize+size]
	headerOf(payloadPointer(payload)).stamp(size, 0)
	i.registry.NotifyAlloc(size)
	return payload
}

// AllocateAligned returns a managed block whose first byte is aligned to
// the given power-of-two alignment. Enough header-aligned padding is
// reserved ahead of the payload that the header still sits immediately
// before it; the padding is recorded in the header so Free can recover the
// true block start. Alignments beyond the underlying allocator's own
// guarantee (64 bytes for the Go allocator) are not honored.
func (i *Interceptor) AllocateAligned(alignment, size int) []byte {
	if alignment <= 1 {
		return i.Allocate(size)
	}
	if size <= 0 {
		return nil
	}
	pad := ((headerSize + alignment - 1) / alignment) * alignment
	raw := i.mem.Allocate(pad + size)
	if raw == nil {
		return nil
	}
	payload := raw[pad : pad+size : pad+size]
	headerOf(payloadPointer(payload)).stamp(size, pad-headerSize)
	i.registry.NotifyAlloc(size)
	return payload
}

// AllocateZeroed computes count*size, allocates through Allocate and
// zero-fills the result, mirroring calloc.
func (i *Interceptor) AllocateZeroed(count, size int) []byte {
	b := i.Allocate(count * size)
	if b != nil {
		clear(b)
	}
	return b
}

// Free releases a block. Nil and empty slices are no-ops. If the memory
// preceding the slice carries the interceptor's tag, observers are notified
// with the recorded size and the true underlying block is released.
// Otherwise the slice is foreign (allocated before interception was in
// place, or by a path the interceptor never saw) and is forwarded to the
// underlying allocator unmodified.
func (i *Interceptor) Free(b []byte) {
	if len(b) == 0 {
		return
	}
	ptr := payloadPointer(b)
	h := headerOf(ptr)
	if !h.managed() {
		i.mem.Free(b)
		return
	}
	i.registry.NotifyFree(int(h.size))
	i.mem.Free(trueBlock(ptr, h))
}

// Reallocate resizes a block. A zero size behaves as Free; a nil block
// behaves as Allocate. For a managed block, observers see a free of the old
// size followed by an allocation of the new size; the header is re-stamped
// after the underlying reallocation. Foreign blocks are forwarded
// unmodified. An underlying reallocation failure (nil) propagates after the
// free notification, matching the pass-through failure contract.
func (i *Interceptor) Reallocate(size int, b []byte) []byte {
	if size <= 0 {
		i.Free(b)
		return nil
	}
	if len(b) == 0 {
		return i.Allocate(size)
	}
	ptr := payloadPointer(b)
	h := headerOf(ptr)
	if !h.managed() {
		return i.mem.Reallocate(size, b)
	}

	oldSize := int(h.size)
	offset := int(h.offset)
	raw := trueBlock(ptr, h)

	i.registry.NotifyFree(oldSize)
	newRaw := i.mem.Reallocate(offset+headerSize+size, raw)
	if newRaw == nil {
		return nil
	}
	payload := newRaw[offset+headerSize : offset+headerSize+size : offset+headerSize+size]
	headerOf(payloadPointer(payload)).stamp(size, offset)
	i.registry.NotifyAlloc(size)
	return payload
}
