package main

import "github.com/notargets/elemgeom/cmd"

func main() {
	cmd.Execute()
}
