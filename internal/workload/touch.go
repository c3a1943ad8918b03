package workload

import (
	"context"
	"fmt"
)

// Touch allocates zero-initialized arrays, verifies the initialization
// and writes every block before freeing. It stresses the zeroed and
// aligned allocation paths rather than turnover.
type Touch struct{}

// NewTouch creates the touch workload.
func NewTouch() *Touch { return &Touch{} }

// Name implements Workload.
func (t *Touch) Name() string { return "touch" }

// Description implements Workload.
func (t *Touch) Description() string {
	return "zero-initialized array allocation with full verification"
}

// Run implements Workload.
func (t *Touch) Run(ctx context.Context, alloc Allocator, p Params, progress ProgressFunc) error {
	if err := validate(p); err != nil {
		return err
	}

	for round := 0; round < p.Rounds; round++ {
		if err := canceled(ctx, round); err != nil {
			return err
		}

		b := alloc.AllocateZeroed(p.Blocks, p.BlockSize)
		if b == nil {
			return fmt.Errorf("zeroed allocation of %d x %d bytes returned nil", p.Blocks, p.BlockSize)
		}
		for i := 0; i < len(b); i += p.BlockSize {
			if b[i] != 0 {
				alloc.Free(b)
				return fmt.Errorf("zeroed allocation has dirty byte at offset %d", i)
			}
			b[i] = 0xa5
		}
		alloc.Free(b)

		report(progress, float64(round+1)/float64(p.Rounds))
	}
	return nil
}
