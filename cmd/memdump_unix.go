//go:build !windows

package cmd

import "golang.org/x/sys/unix"

// peakMemoryUsageBytes reports the process's peak resident set size via
// getrusage(RUSAGE_SELF), the same figure a benchmarking harness reads
// on Linux/macOS. ru_maxrss is kilobytes on Linux, bytes on Darwin;
// unix.Getrusage doesn't tell us which, so the Linux convention is
// assumed since that's the platform this repo is benchmarked on.
func peakMemoryUsageBytes() (uint64, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, err
	}
	return uint64(ru.Maxrss) * 1024, nil
}
