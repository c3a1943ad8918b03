// Package workload provides the built-in allocation workloads driven by
// pmbench. Each workload routes all of its allocations through an
// intercepting allocator so the traffic is visible to the measurement
// callbacks.
package workload

import (
	"context"
	"fmt"
)

// Allocator is the allocation surface a workload runs against.
// heap.Interceptor satisfies it.
type Allocator interface {
	Allocate(size int) []byte
	AllocateAligned(alignment, size int) []byte
	AllocateZeroed(count, size int) []byte
	Free(b []byte)
	Reallocate(size int, b []byte) []byte
}

// Params are the sizing knobs shared by all workloads.
type Params struct {
	// Rounds is the number of iterations to perform.
	Rounds int
	// Blocks is the size of the live allocation set.
	Blocks int
	// BlockSize is the size in bytes of each block.
	BlockSize int
	// Alignment forces aligned allocations when non-zero.
	Alignment int
}

// ProgressFunc receives the workload's completion fraction in [0, 1].
type ProgressFunc func(done float64)

// Workload is a runnable allocation pattern.
type Workload interface {
	// Name returns the workload's unique name.
	Name() string
	// Description returns a one-line description for usage output.
	Description() string
	// Run executes the workload. It must free everything it allocated
	// before returning, honor ctx cancellation, and report progress if
	// progress is non-nil.
	Run(ctx context.Context, alloc Allocator, p Params, progress ProgressFunc) error
}

// Factory provides access to the available workloads.
type Factory interface {
	// List returns the available workload names in registration order.
	List() []string
	// Get returns the named workload.
	Get(name string) (Workload, bool)
	// GetAll returns all workloads in registration order.
	GetAll() []Workload
}

type defaultFactory struct {
	workloads []Workload
	byName    map[string]Workload
}

// NewDefaultFactory creates a factory with the built-in workloads.
func NewDefaultFactory() Factory {
	f := &defaultFactory{byName: make(map[string]Workload)}
	for _, w := range []Workload{NewChurn(), NewRamp(), NewTouch()} {
		f.workloads = append(f.workloads, w)
		f.byName[w.Name()] = w
	}
	return f
}

func (f *defaultFactory) List() []string {
	names := make([]string, len(f.workloads))
	for i, w := range f.workloads {
		names[i] = w.Name()
	}
	return names
}

func (f *defaultFactory) Get(name string) (Workload, bool) {
	w, ok := f.byName[name]
	return w, ok
}

func (f *defaultFactory) GetAll() []Workload {
	return append([]Workload(nil), f.workloads...)
}

// allocate picks the plain or aligned entry point depending on p.
func allocate(alloc Allocator, p Params, size int) []byte {
	if p.Alignment > 1 {
		return alloc.AllocateAligned(p.Alignment, size)
	}
	return alloc.Allocate(size)
}

// report invokes progress if set, clamping to [0, 1].
func report(progress ProgressFunc, done float64) {
	if progress == nil {
		return
	}
	if done > 1 {
		done = 1
	}
	progress(done)
}

// validate rejects parameter sets no workload can run with.
func validate(p Params) error {
	if p.Rounds < 1 || p.Blocks < 1 || p.BlockSize < 1 {
		return fmt.Errorf("workload params must be positive, got rounds=%d blocks=%d block-size=%d",
			p.Rounds, p.Blocks, p.BlockSize)
	}
	return nil
}

// checkInterval is how many rounds pass between ctx polls.
const checkInterval = 64

func canceled(ctx context.Context, round int) error {
	if round%checkInterval == 0 {
		return ctx.Err()
	}
	return nil
}
