// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"os"
	"runtime/pprof"

	"sargraph/cmd"
)

func main() {
	// profile only if the environment variable is set
	if os.Getenv("SARGRAPH_PROFILE") != "" {
		stop := startProfiling()
		defer stop()
	}
	cmd.Execute()
}

// startProfiling starts CPU profiling and returns a function that stops it and writes the heap profile.
func startProfiling() func() {
	cpuFile, err := os.Create("cpu.prof")
	if err != nil {
		panic(err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		panic(err)
	}
	return func() {
		pprof.StopCPUProfile()
		cpuFile.Close()
		memFile, err := os.Create("mem.prof")
		if err != nil {
			panic(err)
		}
		defer memFile.Close()
		if err := pprof.WriteHeapProfile(memFile); err != nil {
			panic(err)
		}
		fmt.Printf("Profiling data written to cpu.prof and mem.prof\n")
		fmt.Printf("To analyze, use:\n")
		fmt.Printf("  go tool pprof cpu.prof\n")
		fmt.Printf("  go tool pprof -http=:8080 cpu.prof\n")
	}
}
