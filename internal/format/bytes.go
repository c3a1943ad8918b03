package format

import "fmt"

// FormatBytes formats a byte count using binary units, keeping one
// decimal for values above a kibibyte.
func FormatBytes(n int64) string {
	const unit = 1024
	neg := n < 0
	if neg {
		n = -n
	}
	s := ""
	switch {
	case n < unit:
		s = fmt.Sprintf("%d B", n)
	case n < unit*unit:
		s = fmt.Sprintf("%.1f KiB", float64(n)/unit)
	case n < unit*unit*unit:
		s = fmt.Sprintf("%.1f MiB", float64(n)/(unit*unit))
	default:
		s = fmt.Sprintf("%.1f GiB", float64(n)/(unit*unit*unit))
	}
	if neg {
		return "-" + s
	}
	return s
}
