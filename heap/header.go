package heap

import "unsafe"

// blockTag is the sentinel written into every managed block header. A block
// is managed iff the eight bytes at its header position equal this value.
// The check is a heuristic: the interceptor may be handed memory it never
// allocated (foreign blocks), and the tag is read from whatever bytes
// precede the payload. The value is chosen so that an accidental collision
// with foreign memory is implausible, not impossible.
const blockTag uint64 = 0xFEDCBA9876543210

// blockHeader is the hidden metadata stamped ahead of every managed
// payload. size is the originally requested payload size; offset is the
// alignment padding inserted ahead of the header, so the true start of the
// underlying block is payload - headerSize - offset.
type blockHeader struct {
	tag    uint64
	size   int64
	offset int64
}

// headerSize is the number of bytes reserved between the underlying block
// start (plus any alignment padding) and the payload handed to the caller.
const headerSize = int(unsafe.Sizeof(blockHeader{}))

// This file is the only unsafe boundary in the repository. Everything below
// reinterprets raw memory: it reads bytes outside the bounds of the payload
// slice the caller holds. That is inherently unprovable against foreign
// pointers and must not leak out of this package.

// headerOf returns the header stored immediately ahead of the payload
// pointer. For foreign payloads this reads arbitrary memory; callers must
// treat the result as untrusted until managed() confirms the tag.
func headerOf(payload unsafe.Pointer) *blockHeader {
	return (*blockHeader)(unsafe.Add(payload, -headerSize))
}

// managed reports whether the header carries the interceptor's tag.
func (h *blockHeader) managed() bool { return h.tag == blockTag }

// stamp writes the tag, requested size and alignment offset. Called at
// allocation time and refreshed on reallocation; never mutated otherwise.
func (h *blockHeader) stamp(size, offset int) {
	h.tag = blockTag
	h.size = int64(size)
	h.offset = int64(offset)
}

// trueBlock reconstructs the full underlying slice for a managed payload:
// offset padding bytes, then the header, then size payload bytes. The
// result is what the underlying allocator originally handed out and what
// must be passed back to it on release.
func trueBlock(payload unsafe.Pointer, h *blockHeader) []byte {
	start := unsafe.Add(payload, -(headerSize + int(h.offset)))
	total := int(h.offset) + headerSize + int(h.size)
	return unsafe.Slice((*byte)(start), total)
}

// payloadPointer returns the address of the first payload byte.
func payloadPointer(b []byte) unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(b))
}
