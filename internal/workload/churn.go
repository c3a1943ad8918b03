package workload

import "context"

// Churn maintains a fixed-size ring of live blocks and replaces one slot
// per round, producing steady interleaved allocation and free traffic at
// a stable outstanding size. This is the pattern of a cache under
// constant turnover.
type Churn struct{}

// NewChurn creates the churn workload.
func NewChurn() *Churn { return &Churn{} }

// Name implements Workload.
func (c *Churn) Name() string { return "churn" }

// Description implements Workload.
func (c *Churn) Description() string {
	return "steady allocate/free turnover over a fixed live set"
}

// Run implements Workload.
func (c *Churn) Run(ctx context.Context, alloc Allocator, p Params, progress ProgressFunc) error {
	if err := validate(p); err != nil {
		return err
	}

	slots := make([][]byte, p.Blocks)
	defer func() {
		for _, b := range slots {
			alloc.Free(b)
		}
	}()

	for round := 0; round < p.Rounds; round++ {
		if err := canceled(ctx, round); err != nil {
			return err
		}

		i := round % len(slots)
		alloc.Free(slots[i])

		b := allocate(alloc, p, p.BlockSize)
		if b != nil {
			// Touch first and last byte so the block is actually used.
			b[0] = byte(round)
			b[len(b)-1] = byte(round >> 8)
		}
		slots[i] = b

		report(progress, float64(round+1)/float64(p.Rounds))
	}
	return nil
}
