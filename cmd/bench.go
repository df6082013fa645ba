//go:build linux

/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"time"

	perf "github.com/hodgesds/perf-utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/elemgeom/device"
	"github.com/notargets/elemgeom/geometry"
)

// BenchCmd represents the bench command
var BenchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Count CPU cycles spent generating random geometry",
	Long: `
Runs the random geometry generator repeatedly and reports CPU cycles per element
from the kernel's perf counters. Needs perf_event access (see perf_event_paranoid).

elemgeom bench -k 4096 -n 5`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		K, _ := cmd.Flags().GetInt("k")
		runs, _ := cmd.Flags().GetInt("runs")
		var (
			sub  device.Substrate
			free func()
		)
		if sub, free, err = newSubstrate(); err != nil {
			return
		}
		defer free()
		return RunBench(K, runs, viper.GetInt("parallel"), sub)
	},
}

func init() {
	rootCmd.AddCommand(BenchCmd)
	BenchCmd.Flags().IntP("k", "k", 1024, "Number of elements")
	BenchCmd.Flags().IntP("runs", "n", 3, "number of timed runs")
}

func RunBench(K, runs, parallelDegree int, sub device.Substrate) (err error) {
	s := geometry.NewStore(sub)
	s.ParallelDegree = parallelDegree
	for run := 0; run < runs; run++ {
		var (
			start = time.Now()
			pv    *perf.ProfileValue
		)
		pv, err = perf.CPUCycles(func() error {
			return s.GenerateRandom(K, geometry.NewDeterministicSource(uint64(run)))
		})
		if err != nil {
			return fmt.Errorf("counting cycles: %w", err)
		}
		var perElement float64
		if K > 0 {
			perElement = float64(pv.Value) / float64(K)
		}
		fmt.Printf("run %d: %d elements in %v, %d cycles, %8.1f cycles/element\n",
			run, K, time.Since(start), pv.Value, perElement)
	}
	return
}
