// Command cmpbygen generates equality, ordering and hashing for the types of
// Go packages annotated with //cmpby:derive.
//
// Usage:
//
//	//go:generate go run github.com/syssam/cmpby/cmd/cmpbygen
//
//	cmpbygen [flags] [patterns]
//	cmpbygen inspect [--format json|yaml] [patterns]
//	cmpbygen watch [patterns]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "cmpbygen:", err)
		stop()
		os.Exit(1)
	}
}
