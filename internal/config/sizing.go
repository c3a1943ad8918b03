package config

import "runtime"

// Sizing resolution chain (highest priority first):
//   1. CLI flags (--rounds, --blocks, --block-size)
//   2. Environment variables (PM_ROUNDS, etc.)
//   3. Adaptive hardware estimation (this file)

// ApplyAdaptiveSizing fills in workload sizing fields that are still at
// their zero default, based on hardware characteristics. User-specified
// values are preserved.
func ApplyAdaptiveSizing(cfg AppConfig) AppConfig {
	if cfg.Rounds == 0 {
		cfg.Rounds = EstimateRounds()
	}
	if cfg.Blocks == 0 {
		cfg.Blocks = EstimateBlocks()
	}
	if cfg.BlockSize == 0 {
		cfg.BlockSize = EstimateBlockSize()
	}
	return cfg
}

// EstimateRounds provides a heuristic iteration count so a default run
// finishes in seconds on common hardware.
func EstimateRounds() int {
	numCPU := runtime.NumCPU()

	switch {
	case numCPU <= 2:
		return 1 << 12
	case numCPU <= 8:
		return 1 << 13
	default:
		return 1 << 14
	}
}

// EstimateBlocks provides a heuristic live-set size. Larger core counts
// get larger sets so the traffic pattern stays interesting relative to
// cache sizes.
func EstimateBlocks() int {
	numCPU := runtime.NumCPU()

	if numCPU >= 8 {
		return 512
	}
	return 256
}

// EstimateBlockSize provides a heuristic block size based on the word
// size: one page on 64-bit, half a page on 32-bit.
func EstimateBlockSize() int {
	wordSize := 32 << (^uint(0) >> 63)

	if wordSize == 64 {
		return 4096
	}
	return 2048
}
