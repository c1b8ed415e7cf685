package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"diskmap/internal/hostapi"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <path>",
		Short: "Scan a directory tree, then stay resident printing filesystem changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runWatch(args[0])
		},
	}
}

func runWatch(path string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, err := hostapi.Open(path)
	if err != nil {
		return err
	}
	defer svc.Close()

	svc.Scan()
	if err := svc.WaitIdle(ctx); err != nil {
		return err
	}

	sum := svc.Summary()
	fmt.Printf("watching %s (%d files, %d directories)\n", path, sum.FileCount, sum.DirCount)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, e := range svc.DrainEvents() {
				fmt.Println(e)
			}
		}
	}
}
