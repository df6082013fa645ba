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

	"github.com/spf13/cobra"

	"github.com/notargets/elemgeom/device"
	"github.com/notargets/elemgeom/geometry"
	"github.com/notargets/elemgeom/meshfeed"
)

type ModelLoad struct {
	FeedFile  string
	Tolerance float64 // Zero skips the inverse check
}

// LoadCmd represents the load command
var LoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load element geometry from a feed file",
	Long: `
Reads a YAML or JSON feed of per-element geometry, loads every element into the
store and makes it visible to the compute device. Values are taken verbatim.

elemgeom load -F feed.yaml --check 1.e-10`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ml := &ModelLoad{}
		ml.FeedFile, _ = cmd.Flags().GetString("feedFile")
		ml.Tolerance, _ = cmd.Flags().GetFloat64("check")
		if len(ml.FeedFile) == 0 {
			return fmt.Errorf("must supply a feed file (-F, --feedFile)")
		}
		var (
			sub  device.Substrate
			free func()
		)
		if sub, free, err = newSubstrate(); err != nil {
			return
		}
		defer free()
		_, err = RunLoad(ml, sub)
		return
	},
}

func init() {
	rootCmd.AddCommand(LoadCmd)
	LoadCmd.Flags().StringP("feedFile", "F", "", "geometry feed file, YAML or JSON")
	LoadCmd.Flags().Float64("check", 0, "when positive, verify D * DInv = I to this relative tolerance")
}

func RunLoad(ml *ModelLoad, sub device.Substrate) (s *geometry.Store, err error) {
	var fd *meshfeed.Feed
	if fd, err = meshfeed.ReadFile(ml.FeedFile); err != nil {
		return
	}
	if len(fd.Title) != 0 {
		fmt.Printf("\"%s\"\t\t= Title\n", fd.Title)
	}
	s = geometry.NewStore(sub)
	if err = meshfeed.Apply(s, fd); err != nil {
		return
	}
	fmt.Printf("Loaded %d of %d elements from %s\n", len(fd.Elements), fd.NumElements, ml.FeedFile)
	if ml.Tolerance > 0 {
		if err = s.CheckInverse(ml.Tolerance); err != nil {
			return
		}
		fmt.Printf("Inverse check passed\n")
	}
	fmt.Print(s.Summary())
	return
}
