// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import "go.uber.org/zap"

// Options configure opening a partition table.
type Options struct {
	// Logger receives non-fatal diagnostics (backup mismatches, recovery).
	Logger *zap.Logger

	// SectorSize overrides the logical block size instead of querying the
	// device.
	SectorSize uint32

	// BlockCount overrides the device logical block count. Useful for image
	// files, whose discovered count is zero.
	BlockCount uint64

	// ReadOnlyPrefix marks entries 0..ReadOnlyPrefix immutable when
	// non-negative.
	ReadOnlyPrefix int
}

// Option is a function that sets some option.
type Option func(*Options)

// WithLogger sets the diagnostics logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithSectorSize overrides the logical block size.
func WithSectorSize(size uint32) Option {
	return func(o *Options) {
		o.SectorSize = size
	}
}

// WithBlockCount overrides the device logical block count.
func WithBlockCount(count uint64) Option {
	return func(o *Options) {
		o.BlockCount = count
	}
}

// WithReadOnlyPrefix marks entries 0..idx as immutable.
func WithReadOnlyPrefix(idx int) Option {
	return func(o *Options) {
		o.ReadOnlyPrefix = idx
	}
}

func applyOptions(opts ...Option) Options {
	options := Options{
		Logger:         zap.NewNop(),
		ReadOnlyPrefix: -1,
	}

	for _, opt := range opts {
		opt(&options)
	}

	return options
}
