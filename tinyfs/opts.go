package tinyfs

import (
	"time"

	"github.com/mit-pdos/go-tinyfs/disk"
	"github.com/mit-pdos/go-tinyfs/util"
)

// Option configures an FS.
type Option func(*FS)

// WithOpener sets how volumes are opened by name. The default opens host
// files.
func WithOpener(open disk.Opener) Option {
	return func(f *FS) {
		f.opener = open
	}
}

// WithClock sets the source of file timestamps.
func WithClock(clock func() time.Time) Option {
	return func(f *FS) {
		f.clock = clock
	}
}

// WithDebug sets the debug print level (see util.DPrintf).
func WithDebug(level uint64) Option {
	return func(f *FS) {
		util.Debug = level
	}
}
