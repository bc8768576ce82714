// Package disk emulates a fixed-size block device on top of a host file (or
// memory, for tests). Block numbers run from 0 to Size()-1.
package disk

import (
	"errors"

	"github.com/mit-pdos/go-tinyfs/common"
)

// Block is a BlockSize-byte buffer
type Block = []byte

const BlockSize uint64 = common.BlockSize

// ErrBadBlock is returned for reads and writes past the end of the disk.
var ErrBadBlock = errors.New("block out of bounds")

// Disk provides access to a logical block-based disk
type Disk interface {
	// Read reads a disk block by address
	//
	// Expects a < Size().
	Read(a uint64) (Block, error)

	// ReadTo reads the disk block at a and stores the result in b
	//
	// Expects a < Size().
	ReadTo(a uint64, b Block) error

	// Write updates a disk block by address
	//
	// Expects a < Size().
	Write(a uint64, v Block) error

	// Size reports how big the disk is, in blocks
	Size() (uint64, error)

	// Barrier ensures data is persisted.
	//
	// When it returns, all outstanding writes are guaranteed to be durably on
	// disk
	Barrier() error

	// Close releases any resources used by the disk and makes it unusable.
	Close() error
}

// Opener opens the disk named by path. nBytes == 0 opens an existing disk;
// nBytes > 0 creates (or truncates) one of nBytes rounded down to a whole
// number of blocks.
type Opener func(path string, nBytes uint64) (Disk, error)

// NumBlocks is the number of whole blocks in nBytes.
func NumBlocks(nBytes uint64) uint64 {
	return nBytes / BlockSize
}
