// Command todo runs the todo proxy, either as an HTTP server or as a Lambda,
// and ships a terminal client plus a few maintenance commands.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
