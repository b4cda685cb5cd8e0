package main

import (
	"fmt"
	"os"

	"storefront/cmd"
)

func main() {
	if err := cmd.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "storefront:", err)
		os.Exit(1)
	}
}
