package heap

import (
	"sync"

	"github.com/rs/zerolog"
)

// The default interceptor is the Go stand-in for a process-wide malloc
// override: one owning context object with init-on-first-use lifetime,
// reachable only through Default and the package-level entry points below.

var (
	defaultOnce        sync.Once
	defaultInterceptor *Interceptor

	log = zerolog.Nop()
)

// SetLogger installs a logger for interceptor lifecycle events. Hot paths
// (allocate, free, notify) never log.
func SetLogger(l zerolog.Logger) { log = l }

// Default returns the process-wide interceptor, creating it on first use.
// It is wired to callback.Default(), so meters that register with the
// default registry observe all traffic flowing through it.
func Default() *Interceptor {
	defaultOnce.Do(func() {
		defaultInterceptor = NewInterceptor(nil, nil)
		log.Debug().Int("header_size", headerSize).Msg("default heap interceptor installed")
	})
	return defaultInterceptor
}

// Allocate allocates a managed block from the default interceptor.
func Allocate(size int) []byte { return Default().Allocate(size) }

// AllocateAligned allocates an aligned managed block from the default
// interceptor.
func AllocateAligned(alignment, size int) []byte {
	return Default().AllocateAligned(alignment, size)
}

// AllocateZeroed allocates a zero-filled managed block from the default
// interceptor.
func AllocateZeroed(count, size int) []byte { return Default().AllocateZeroed(count, size) }

// Free releases a block through the default interceptor.
func Free(b []byte) { Default().Free(b) }

// Reallocate resizes a block through the default interceptor.
func Reallocate(size int, b []byte) []byte { return Default().Reallocate(size, b) }
