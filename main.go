// ABOUTME: Entry point for the clinic CLI
// ABOUTME: Command-line and terminal client for the homoeopathy clinic portal

package main

import (
	"fmt"
	"os"

	"github.com/adeebazad/react-homoeo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
