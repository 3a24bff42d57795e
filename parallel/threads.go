package parallel

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// Threads returns the number of worker goroutines to use for data-parallel
// work. It prefers the logical core count reported by cpuid and falls back to
// runtime.NumCPU when detection fails (for example inside some VMs).
func Threads() int {
	if n := cpuid.CPU.LogicalCores; n > 0 {
		if m := runtime.GOMAXPROCS(0); m < n {
			return m
		}
		return n
	}
	return runtime.NumCPU()
}

// Describe returns a one line summary of the host CPU for startup logs.
func Describe() string {
	cpu := cpuid.CPU
	var simd []string
	for _, f := range []cpuid.FeatureID{cpuid.AVX2, cpuid.FMA3, cpuid.AVX512F} {
		if cpu.Supports(f) {
			simd = append(simd, f.String())
		}
	}
	if len(simd) == 0 {
		simd = append(simd, "none")
	}
	return fmt.Sprintf("%s (%d cores, %d threads, simd: %s)",
		strings.TrimSpace(cpu.BrandName), cpu.PhysicalCores, cpu.LogicalCores, strings.Join(simd, ","))
}
