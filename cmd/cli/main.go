package main

import (
	"fmt"
	"os"

	"github.com/toolsascode/wildebeest/internal/registry"
)

var version = "1.0.0"

func main() {
	if err := newRootCmd(registry.GlobalRegistry).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
