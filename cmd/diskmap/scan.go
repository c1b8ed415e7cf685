package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"diskmap/internal/hostapi"
	"diskmap/internal/progress"
)

type scanOptions struct {
	showProgress bool
}

func newScanCmd() *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan <path>",
		Short: "Scan a directory tree and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runScan(args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.showProgress, "progress", false, "draw a progress bar while scanning")
	return cmd
}

func runScan(path string, opts *scanOptions) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, err := hostapi.Open(path)
	if err != nil {
		return err
	}
	defer svc.Close()

	svc.Scan()

	bar := progress.New(opts.showProgress)
	for svc.IsRunning() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
		if pct, known := svc.Progress(); known {
			bar.Set(pct)
		}
	}
	bar.Finish()

	sum := svc.Summary()
	fmt.Printf("%s in %d files, %d directories\n",
		humanize.Bytes(sum.Used), sum.FileCount, sum.DirCount)

	return svc.RecordRecent()
}
