package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"diskmap/internal/hostapi"
)

func newRescanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rescan <path>",
		Short: "Scan a directory tree, then issue a rescan of it and print the refreshed summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runRescan(args[0])
		},
	}
}

func runRescan(path string) error {
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

	if err := svc.RescanPath(path); err != nil {
		return err
	}
	if err := svc.WaitIdle(ctx); err != nil {
		return err
	}

	sum := svc.Summary()
	fmt.Printf("%s in %d files, %d directories\n",
		humanize.Bytes(sum.Used), sum.FileCount, sum.DirCount)
	return nil
}
