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
	"io/ioutil"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/elemgeom/InputParameters"
	"github.com/notargets/elemgeom/device"
	"github.com/notargets/elemgeom/geometry"
	"github.com/notargets/elemgeom/meshfeed"
	"github.com/notargets/elemgeom/utils"
)

type ModelGenerate struct {
	ICFile     string
	OutputFile string
}

// GenerateCmd represents the generate command
var GenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate random but valid element geometry and verify it",
	Long: `
Fills a geometry store with random values in [1/64, 64], redrawing each basis matrix
until its determinant is positive and computing its exact inverse, then verifies
orientation, inverse accuracy and value ranges.

elemgeom generate -k 16 --seed 42 -o feed.yaml`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		mg := &ModelGenerate{}
		mg.ICFile, _ = cmd.Flags().GetString("inputConditionsFile")
		mg.OutputFile, _ = cmd.Flags().GetString("output")
		var ip *InputParameters.InputParametersGeometry
		if ip, err = processGenerateInput(cmd, mg); err != nil {
			return
		}
		var (
			sub  device.Substrate
			free func()
		)
		if sub, free, err = newSubstrate(); err != nil {
			return
		}
		defer free()
		_, err = RunGenerate(mg, ip, sub)
		return
	},
}

func init() {
	rootCmd.AddCommand(GenerateCmd)
	def := InputParameters.Defaults()
	GenerateCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- NumElements\n\t- Seed")
	GenerateCmd.Flags().IntP("k", "k", def.NumElements, "Number of elements")
	GenerateCmd.Flags().Uint64("seed", def.Seed, "seed for deterministic generation")
	GenerateCmd.Flags().Bool("random", false, "seed from the runtime entropy source, the seed used is reported")
	GenerateCmd.Flags().Bool("constant", false, "write the feed in constant viscosity mode, without viscosity tensors")
	GenerateCmd.Flags().StringP("output", "o", "", "write the generated geometry to a feed file")
}

// processGenerateInput layers defaults, the input file, then explicitly set flags
func processGenerateInput(cmd *cobra.Command, mg *ModelGenerate) (ip *InputParameters.InputParametersGeometry, err error) {
	ip = InputParameters.Defaults()
	if len(mg.ICFile) != 0 {
		var data []byte
		if data, err = ioutil.ReadFile(mg.ICFile); err != nil {
			return
		}
		if err = ip.Parse(data); err != nil {
			return nil, fmt.Errorf("%s: %w", mg.ICFile, err)
		}
	}
	flags := cmd.Flags()
	if flags.Changed("k") {
		ip.NumElements, _ = flags.GetInt("k")
	}
	if flags.Changed("seed") {
		ip.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("random") {
		random, _ := flags.GetBool("random")
		ip.Deterministic = !random
	}
	if flags.Changed("constant") {
		ip.ConstViscosity, _ = flags.GetBool("constant")
	}
	if viper.IsSet("parallel") && viper.GetInt("parallel") != 0 {
		ip.ParallelDegree = viper.GetInt("parallel")
	}
	if err = ip.Validate(); err != nil {
		return nil, err
	}
	return
}

func RunGenerate(mg *ModelGenerate, ip *InputParameters.InputParametersGeometry, sub device.Substrate) (s *geometry.Store, err error) {
	ip.Print()
	var rs geometry.RandomSource
	if ip.Deterministic {
		rs = geometry.NewDeterministicSource(ip.Seed)
	} else {
		rs = geometry.NewNondeterministicSource()
	}
	s = geometry.NewStore(sub)
	s.ParallelDegree = ip.ParallelDegree
	start := time.Now()
	if err = s.GenerateRandom(ip.NumElements, rs); err != nil {
		return
	}
	fmt.Printf("Generated %d elements from %s in %v\n", ip.NumElements, rs, time.Since(start))
	fmt.Println(utils.GetMemUsage())

	if err = s.CheckOrientation(); err != nil {
		return
	}
	if err = s.CheckInverse(ip.Tolerance); err != nil {
		return
	}
	if err = s.CheckRange(geometry.MinValue, 1./geometry.MinValue); err != nil {
		return
	}
	fmt.Printf("Orientation, inverse and range checks passed\n")
	fmt.Print(s.Summary())

	if len(mg.OutputFile) != 0 {
		fd := meshfeed.FromStore(s, ip.Title)
		if ip.ConstViscosity {
			fd.DropViscosity()
		}
		if err = meshfeed.WriteFile(mg.OutputFile, fd); err != nil {
			return
		}
		fmt.Printf("Wrote %s\n", mg.OutputFile)
	}
	return
}
