package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"diskmap/internal/hostapi"
	"diskmap/internal/mountdiscovery"
)

type rootsOptions struct {
	scanAll bool
	workers int
}

func newRootsCmd() *cobra.Command {
	opts := &rootsOptions{workers: 4}

	cmd := &cobra.Command{
		Use:   "roots",
		Short: "List the platform's scannable mount points",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if opts.scanAll {
				return runScanAllRoots(opts.workers)
			}
			for _, r := range mountdiscovery.AvailableRoots() {
				fmt.Println(r)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.scanAll, "scan-all", false, "scan every available root concurrently and print a summary for each")
	cmd.Flags().IntVar(&opts.workers, "workers", opts.workers, "number of roots to scan concurrently with --scan-all")
	return cmd
}

// rootResult pairs a scanned root with its outcome, one slot per job index
// in the worker pool below.
type rootResult struct {
	root string
	sum  hostapi.Summary
	err  error
}

// runScanAllRoots scans every available root using a bounded worker pool:
// job indices flow through a channel, each worker opens and scans its
// assigned root, and results land in a pre-sized slice indexed by job.
func runScanAllRoots(workers int) error {
	roots := mountdiscovery.AvailableRoots()
	if len(roots) == 0 {
		fmt.Println("no scannable roots found")
		return nil
	}
	if workers <= 0 {
		workers = 4
	}

	results := make([]rootResult, len(roots))
	jobs := make(chan int, len(roots))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = scanRoot(roots[i])
			}
		}()
	}
	for i := range roots {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			fmt.Printf("%s: error: %v\n", r.root, r.err)
			continue
		}
		fmt.Printf("%s: %s in %d files, %d directories\n",
			r.root, humanize.Bytes(r.sum.Used), r.sum.FileCount, r.sum.DirCount)
	}
	return nil
}

func scanRoot(root string) rootResult {
	svc, err := hostapi.Open(root)
	if err != nil {
		return rootResult{root: root, err: err}
	}
	defer svc.Close()

	svc.Scan()
	if err := svc.WaitIdle(context.Background()); err != nil {
		return rootResult{root: root, err: err}
	}
	return rootResult{root: root, sum: svc.Summary()}
}
