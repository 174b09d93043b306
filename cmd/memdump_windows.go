//go:build windows

package cmd

import "runtime"

// peakMemoryUsageBytes approximates peak process memory usage via
// runtime.MemStats.Sys (total memory obtained from the OS): Windows has
// no getrusage equivalent wrapped by golang.org/x/sys/windows, so unlike
// the unix build this is a Go-runtime-reported figure rather than an
// OS-reported peak RSS.
func peakMemoryUsageBytes() (uint64, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Sys, nil
}
