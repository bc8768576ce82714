package common

import "errors"

var (
	ErrDeviceUnavailable = errors.New("device unavailable")
	ErrNotFormatted      = errors.New("volume not formatted")
	ErrFormat            = errors.New("bad block format")
	ErrAlreadyMounted    = errors.New("volume already mounted")
	ErrNotMounted        = errors.New("no volume mounted")
	ErrDiskFull          = errors.New("disk full")
	ErrTableFull         = errors.New("open file table full")
	ErrNotFound          = errors.New("not found")
	ErrNameTooLong       = errors.New("name too long")
	ErrBadName           = errors.New("invalid file name")
	ErrExists            = errors.New("file exists")
	ErrReadOnly          = errors.New("file is read-only")
	ErrOutOfRange        = errors.New("offset out of range")
	ErrClock             = errors.New("clock error")
)
