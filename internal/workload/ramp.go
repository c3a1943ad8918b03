package workload

import (
	"context"
	"fmt"
)

// Ramp grows a single buffer by repeated reallocation, then builds up a
// full live set and tears it down in reverse order. The first half
// exercises in-place growth semantics, the second the high-water mark.
type Ramp struct{}

// NewRamp creates the ramp workload.
func NewRamp() *Ramp { return &Ramp{} }

// Name implements Workload.
func (r *Ramp) Name() string { return "ramp" }

// Description implements Workload.
func (r *Ramp) Description() string {
	return "reallocation growth followed by a build-up/tear-down cycle"
}

// Run implements Workload.
func (r *Ramp) Run(ctx context.Context, alloc Allocator, p Params, progress ProgressFunc) error {
	if err := validate(p); err != nil {
		return err
	}

	total := p.Rounds + 2*p.Blocks
	step := 0

	// Growth: reallocate one buffer larger each round, verifying the
	// prefix survives the move.
	var buf []byte
	for round := 0; round < p.Rounds; round++ {
		if err := canceled(ctx, round); err != nil {
			alloc.Free(buf)
			return err
		}

		size := p.BlockSize + round*8
		buf = alloc.Reallocate(size, buf)
		if buf == nil {
			return fmt.Errorf("reallocate to %d bytes returned nil", size)
		}
		if round == 0 {
			buf[0] = 0x5a
		} else if buf[0] != 0x5a {
			alloc.Free(buf)
			return fmt.Errorf("reallocation lost block contents at round %d", round)
		}

		step++
		report(progress, float64(step)/float64(total))
	}
	alloc.Free(buf)

	// Build-up and tear-down: allocate the full set, free in reverse.
	slots := make([][]byte, 0, p.Blocks)
	for i := 0; i < p.Blocks; i++ {
		if err := canceled(ctx, i); err != nil {
			freeAll(alloc, slots)
			return err
		}
		slots = append(slots, allocate(alloc, p, p.BlockSize))
		step++
		report(progress, float64(step)/float64(total))
	}
	for i := len(slots) - 1; i >= 0; i-- {
		alloc.Free(slots[i])
		step++
		report(progress, float64(step)/float64(total))
	}
	return nil
}

func freeAll(alloc Allocator, slots [][]byte) {
	for _, b := range slots {
		alloc.Free(b)
	}
}
