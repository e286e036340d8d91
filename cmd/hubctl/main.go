package main

import (
	"fmt"
	"os"

	"modelhub/internal/hubctl"
)

func main() {
	if err := hubctl.BuildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
