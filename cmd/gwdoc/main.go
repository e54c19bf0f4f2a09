// Package main renders subscription documentation as HTML.
//
// The input is a YAML manifest (see tools.Manifest).
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gangwayio/gangway/tools"
)

func main() {

	var (
		manifest = flag.String("m", "manifest.yaml", "Manifest (YAML) filename")
		css      = flag.String("css", "", "Optional comma-separated CSS filenames")
	)

	flag.Parse()

	var cssFiles []string
	if *css != "" {
		cssFiles = strings.Split(*css, ",")
	}

	if err := tools.ReadAndRenderSubsPage(*manifest, cssFiles, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
