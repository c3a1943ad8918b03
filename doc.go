// Package pm provides lightweight instrumentation for measuring the
// running time and heap allocation behavior of code sections.
//
// The central concept is the Phase: a named measurement scope composing
// an ordered set of meters. The built-in Stopwatch measures wall-clock
// time, the MallocCounter aggregates allocation traffic observed through
// a callback registry, and the RusageMeter (on unix) samples getrusage.
// Phases nest by absorbing the reports of stopped child phases, and a
// finished phase serializes its hierarchy into a Report, renderable as
// JSON or flattened into a RESULT line via Result.
//
// Allocation measurement works by routing allocations through the heap
// package's intercepting allocator, which notifies the registered
// callbacks about every allocation and free it serves. Only traffic
// routed through the interceptor is visible; allocations made directly
// by the Go runtime are not observed.
package pm
