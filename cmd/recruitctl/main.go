// cmd/recruitctl/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"

	"recruitment-workers/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
