package main

import (
	"context"
	"fmt"
	"os"

	"github.com/danielpatrickdp/transition-gate/internal/cli"
)

func main() {
	if err := cli.New().Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if cli.IsUsage(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
