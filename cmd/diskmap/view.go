package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"diskmap/internal/hostapi"
	"diskmap/internal/view"
)

type viewOptions struct {
	debugJSON bool
}

func newViewCmd() *cobra.Command {
	opts := &viewOptions{}

	cmd := &cobra.Command{
		Use:   "view <path>",
		Short: "Scan a directory tree and print an ASCII treemap",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runView(args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.debugJSON, "debug-json", false, "print the raw snapshot tree as JSON instead of the ASCII treemap")
	return cmd
}

func runView(path string, opts *viewOptions) error {
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

	w, h := terminalSize()
	snapshot, ok := svc.View(view.Rect{W: float64(w), H: float64(h) - 2})
	if !ok {
		return fmt.Errorf("view: %s has no snapshot to render", path)
	}

	if opts.debugJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshot)
	}

	for _, line := range renderGrid(snapshot, w, h-2) {
		fmt.Println(line)
	}

	fmt.Println()
	printFlatListing(snapshot)
	return nil
}

func terminalSize() (int, int) {
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && h > 0 {
		return w, h
	}
	return 80, 24
}

// renderGrid draws every cell's Area as a box of '-'/'|' characters with its
// name and size printed along the top edge, recursing into children.
func renderGrid(root *view.Entry, w, h int) []string {
	if w <= 0 || h <= 0 {
		return nil
	}
	grid := make([][]rune, h)
	for y := range grid {
		grid[y] = make([]rune, w)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}

	var draw func(e *view.Entry)
	draw = func(e *view.Entry) {
		x0, y0 := int(e.Area.X), int(e.Area.Y)
		x1, y1 := int(e.Area.X+e.Area.W)-1, int(e.Area.Y+e.Area.H)-1
		if x1 <= x0 || y1 <= y0 || x0 < 0 || y0 < 0 || x1 >= w || y1 >= h {
			return
		}

		for x := x0; x <= x1; x++ {
			grid[y0][x] = '-'
			grid[y1][x] = '-'
		}
		for y := y0; y <= y1; y++ {
			grid[y][x0] = '|'
			grid[y][x1] = '|'
		}

		label := fmt.Sprintf(" %s (%s) ", e.Name, humanize.Bytes(uint64(e.Size)))
		for i, c := range label {
			if x0+1+i >= x1 {
				break
			}
			grid[y0][x0+1+i] = c
		}

		for _, c := range e.Children {
			draw(c)
		}
	}

	for _, c := range root.Children {
		draw(c)
	}

	lines := make([]string, h)
	for y, row := range grid {
		lines[y] = string(row)
	}
	return lines
}

func printFlatListing(root *view.Entry) {
	children := append([]*view.Entry{}, root.Children...)
	sortBySize(children)

	fmt.Println("size-sorted:")
	for _, c := range children {
		fmt.Printf("  %10s  %s\n", humanize.Bytes(uint64(c.Size)), c.Name)
	}
}

func sortBySize(entries []*view.Entry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Size > entries[j].Size })
}
