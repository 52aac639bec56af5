// Command silorecon reconciles warehouse tasks against the silo bin mapping
// and replaces the reconciled table in the configured sink.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
