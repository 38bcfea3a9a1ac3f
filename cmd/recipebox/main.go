// recipebox is a terminal client for the recipe-sharing service.
//
// Usage:
//
//	recipebox [--api-url URL] [--verbose] [--quiet]   interactive prompt
//	recipebox login --email a@b.com
//	recipebox recipes list --page 2
//	recipebox cart download --out list.txt
package main

import (
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
