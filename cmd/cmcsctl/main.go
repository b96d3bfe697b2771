package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/cmcs/internal/ctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := ctl.NewApp(os.Stdout, os.Stderr).Run(ctx, os.Args[1:])
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "cmcsctl: %v\n", err)
	if errors.Is(err, ctl.ErrUsage) {
		os.Exit(2)
	}
	os.Exit(1)
}
