package main

import (
	"fmt"
	"os"

	"github.com/jcmexdev/storefront-orders/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "storefront:", err)
		os.Exit(1)
	}
}
