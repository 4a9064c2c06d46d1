package commands

import (
	"fmt"
	"os"
	"path"
	"runtime"
	"runtime/pprof"

	"k8s.io/klog/v2"
)

// startProfiling starts the cpu profile and returns the function that
// stops it and writes the memory profile
func startProfiling(dir, cpuprofile, memprofile string) (func(), error) {
	var cpuFile *os.File
	if cpuprofile != "" {
		cpuProfPath := path.Join(dir, cpuprofile)
		fmt.Println("Profiling CPU to ", cpuProfPath)
		f, err := os.Create(cpuProfPath)
		if err != nil {
			return nil, fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("could not start CPU profile: %w", err)
		}
		cpuFile = f
	}

	return func() {
		if cpuFile != nil {
			pprof.StopCPUProfile()
			cpuFile.Close()
		}
		if memprofile == "" {
			return
		}
		memProfPath := path.Join(dir, memprofile)
		fmt.Println("Profiling Memory to ", memProfPath)
		f, err := os.Create(memProfPath)
		if err != nil {
			klog.ErrorS(err, "Could not create memory profile")
			return
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			klog.ErrorS(err, "Could not write memory profile")
		}
	}, nil
}
