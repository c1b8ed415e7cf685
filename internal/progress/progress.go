// Package progress wraps schollz/progressbar with enabled/disabled
// handling so callers don't branch on a --progress flag themselves.
package progress

import (
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

const updateInterval = 100 * time.Millisecond

// Bar wraps progressbar. All methods are no-ops when disabled.
type Bar struct {
	bar *progressbar.ProgressBar
}

// New creates a determinate 0..100 progress bar. If enabled is false,
// returns a Bar whose methods are no-ops.
func New(enabled bool) *Bar {
	if !enabled {
		return &Bar{}
	}
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(updateInterval),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetDescription("scanning"),
	)
	return &Bar{bar: bar}
}

// Set updates the bar to pct (0..100).
func (b *Bar) Set(pct int) {
	if b.bar != nil {
		_ = b.bar.Set(pct)
	}
}

// Finish completes the bar.
func (b *Bar) Finish() {
	if b.bar != nil {
		_ = b.bar.Finish()
	}
}
