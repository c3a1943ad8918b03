// Package sysmon samples system-wide CPU and memory usage for the
// dashboard's context panels. The process's own heap picture comes from
// the interceptor; these numbers describe the machine around it.
package sysmon

import (
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Stats holds a single snapshot of system-wide resource usage, both in
// the range 0.0 .. 100.0.
type Stats struct {
	CPUPercent float64
	MemPercent float64
}

// Sample collects one system-wide CPU and memory snapshot. CPU is the
// delta since the previous call (interval 0). Sampling errors yield zero
// values; a missed dashboard tick is not worth an error path.
func Sample() Stats {
	var s Stats
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		s.CPUPercent = pcts[0]
	}
	if vmem, err := mem.VirtualMemory(); err == nil && vmem != nil {
		s.MemPercent = vmem.UsedPercent
	}
	return s
}
