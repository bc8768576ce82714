package tinyfs

import "github.com/mit-pdos/go-tinyfs/common"

// Error kinds returned by FS methods, for use with errors.Is.
var (
	ErrDeviceUnavailable = common.ErrDeviceUnavailable
	ErrNotFormatted      = common.ErrNotFormatted
	ErrFormat            = common.ErrFormat
	ErrAlreadyMounted    = common.ErrAlreadyMounted
	ErrNotMounted        = common.ErrNotMounted
	ErrDiskFull          = common.ErrDiskFull
	ErrTableFull         = common.ErrTableFull
	ErrNotFound          = common.ErrNotFound
	ErrNameTooLong       = common.ErrNameTooLong
	ErrBadName           = common.ErrBadName
	ErrExists            = common.ErrExists
	ErrReadOnly          = common.ErrReadOnly
	ErrOutOfRange        = common.ErrOutOfRange
	ErrClock             = common.ErrClock
)
