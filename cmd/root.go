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
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/elemgeom/device"
)

var (
	cfgFile     string
	profiler    interface{ Stop() }
	profilePath = "."
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "elemgeom",
	Short: "Per-element geometry store for spectral element meshes",
	Long: `
Builds, loads and verifies the per-element geometric metadata of a spectral element
mesh: metric terms, basis matrices and their inverses, and optional viscosity tensors.

elemgeom generate -k 64
elemgeom load -F feed.yaml`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		profiler, err = startProfile(viper.GetString("profile"))
		return
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		stopProfile()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// execute stops any profile the command started, including when the command fails
// and cobra skips PersistentPostRun
func execute() error {
	defer stopProfile()
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.elemgeom.yaml)")
	rootCmd.PersistentFlags().String("device", "host",
		"compute device: host, or OCCA device properties like '{\"mode\": \"Serial\"}'")
	rootCmd.PersistentFlags().IntP("parallel", "p", 0, "number of workers, zero for one per CPU")
	rootCmd.PersistentFlags().String("profile", "", "write a profile of the run: cpu or mem")
	for _, name := range []string{"device", "parallel", "profile"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".elemgeom" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".elemgeom")
	}

	viper.SetEnvPrefix("ELEMGEOM")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func startProfile(kind string) (interface{ Stop() }, error) {
	switch kind {
	case "":
		return nil, nil
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath(profilePath), profile.NoShutdownHook), nil
	case "mem":
		return profile.Start(profile.MemProfile, profile.ProfilePath(profilePath), profile.NoShutdownHook), nil
	}
	return nil, fmt.Errorf("unknown profile type %q, use cpu or mem", kind)
}

func stopProfile() {
	if profiler != nil {
		profiler.Stop()
		profiler = nil
	}
}

// newSubstrate opens the compute device named by --device. The returned free
// function releases it after the store is done.
func newSubstrate() (sub device.Substrate, free func(), err error) {
	props := viper.GetString("device")
	if sub, err = device.NewSubstrate(props); err != nil {
		return nil, nil, fmt.Errorf("opening device %q: %w", props, err)
	}
	free = func() {}
	if oc, ok := sub.(*device.OCCASubstrate); ok {
		free = oc.Free
	}
	fmt.Printf("[%s]\t\t\t\t= Compute Device\n", sub.Mode())
	return
}
