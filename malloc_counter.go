package pm

import "github.com/pdinklag/pm/callback"

// MemoryMetrics is the allocation counter's report snapshot.
type MemoryMetrics struct {
	// Peak is the high-water mark of outstanding bytes.
	Peak uint64 `json:"peak"`
	// Closing is the final number of outstanding bytes; ideally zero,
	// negative if frees were observed without matching tracked
	// allocations.
	Closing int64 `json:"closing"`
	// AllocNum is the number of tracked allocations.
	AllocNum uint64 `json:"alloc_num"`
	// AllocBytes is the number of bytes allocated by tracked allocations.
	AllocBytes uint64 `json:"alloc_bytes"`
	// FreeNum is the number of tracked frees.
	FreeNum uint64 `json:"free_num"`
	// FreeBytes is the number of bytes released by tracked frees.
	FreeBytes uint64 `json:"free_bytes"`
}

// MallocCounter aggregates allocation and free activity observed through a
// callback registry. While active (between Start or Resume and the next
// Pause or Stop) it is registered with its registry and sees every
// allocation and free reported there, process-wide, not just traffic
// related to its own phase.
//
// A counter that starts mid-stream may observe frees without the matching
// allocations; its current count then goes negative. That is a meaningful
// signal, not an error.
type MallocCounter struct {
	registry *callback.Registry
	active   bool

	current int64
	peak    uint64

	allocNum   uint64
	allocBytes uint64
	freeNum    uint64
	freeBytes  uint64
}

var _ callback.Callback = (*MallocCounter)(nil)

// NewMallocCounter creates an inactive counter observing the process-wide
// default registry.
func NewMallocCounter() *MallocCounter {
	return NewMallocCounterWithRegistry(callback.Default())
}

// NewMallocCounterWithRegistry creates an inactive counter observing the
// given registry.
func NewMallocCounterWithRegistry(r *callback.Registry) *MallocCounter {
	return &MallocCounter{registry: r}
}

// OnAlloc implements callback.Callback.
func (c *MallocCounter) OnAlloc(bytes int) {
	c.current += int64(bytes)
	if c.current > 0 && uint64(c.current) > c.peak {
		c.peak = uint64(c.current)
	}
	c.allocNum++
	c.allocBytes += uint64(bytes)
}

// OnFree implements callback.Callback.
func (c *MallocCounter) OnFree(bytes int) {
	c.current -= int64(bytes)
	c.freeNum++
	c.freeBytes += uint64(bytes)
}

func (c *MallocCounter) reset() {
	c.current = 0
	c.peak = 0
	c.allocNum = 0
	c.allocBytes = 0
	c.freeNum = 0
	c.freeBytes = 0
}

// Start resets all counters and begins observing.
func (c *MallocCounter) Start() {
	c.reset()
	c.Resume()
}

// Pause unregisters the counter, excluding subsequent traffic from its
// counters while retaining accumulated state. A no-op while inactive.
func (c *MallocCounter) Pause() {
	if c.active {
		c.registry.Unregister(c)
		c.active = false
	}
}

// Resume registers the counter again without resetting. A no-op while
// active.
func (c *MallocCounter) Resume() {
	if !c.active {
		c.registry.Register(c)
		c.active = true
	}
}

// Stop ends the measurement window; equivalent to Pause.
func (c *MallocCounter) Stop() { c.Pause() }

// Count returns the current number of outstanding bytes. May be negative
// if the counter observed frees without the corresponding allocations.
func (c *MallocCounter) Count() int64 { return c.current }

// Peak returns the peak number of outstanding bytes.
func (c *MallocCounter) Peak() uint64 { return c.peak }

// AllocNum returns the number of tracked allocations.
func (c *MallocCounter) AllocNum() uint64 { return c.allocNum }

// AllocBytes returns the number of bytes allocated by tracked allocations.
func (c *MallocCounter) AllocBytes() uint64 { return c.allocBytes }

// FreeNum returns the number of tracked frees.
func (c *MallocCounter) FreeNum() uint64 { return c.freeNum }

// FreeBytes returns the number of bytes released by tracked frees.
func (c *MallocCounter) FreeBytes() uint64 { return c.freeBytes }

// Key identifies the counter's measurement in a report.
func (c *MallocCounter) Key() string { return "memory" }

// Snapshot returns the counter's MemoryMetrics.
func (c *MallocCounter) Snapshot() any {
	return MemoryMetrics{
		Peak:       c.peak,
		Closing:    c.current,
		AllocNum:   c.allocNum,
		AllocBytes: c.allocBytes,
		FreeNum:    c.freeNum,
		FreeBytes:  c.freeBytes,
	}
}

// MetricValue supports MetricMemoryPeak and MetricMemoryClosing.
func (c *MallocCounter) MetricValue(name string) (any, bool) {
	switch name {
	case MetricMemoryPeak:
		return c.peak, true
	case MetricMemoryClosing:
		return c.current, true
	}
	return nil, false
}
