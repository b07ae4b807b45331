// Command tablestat loads keys into a hash table and reports how they spread
// over the buckets, along with repeated keys and digest collisions.
//
//	tablestat [-f config.yaml] [--buckets N] [--width 32|64] [--budget BYTES] [--pool N] [--verbose] [FILE...]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "tablestat: %v\n", err)
		os.Exit(1)
	}
}
