package addr

import (
	"github.com/mit-pdos/go-tinyfs/common"
)

// Addr identifies one byte of a file's content.
//
// Index is the position of the extent block in the file's extent chain
// (0 is the block the inode links to), and Off is the byte offset within
// that extent's payload.
type Addr struct {
	Index uint64
	Off   uint64
}

// Flatid is the logical file position of a.
func (a Addr) Flatid() uint64 {
	return a.Index*common.DataSize + a.Off
}

// Hops is the number of links to follow from the inode to reach a's extent.
func (a Addr) Hops() uint64 {
	return a.Index + 1
}

func MkAddr(index uint64, off uint64) Addr {
	return Addr{Index: index, Off: off}
}

// MkPosAddr translates a logical file position.
func MkPosAddr(pos uint64) Addr {
	return MkAddr(pos/common.DataSize, pos%common.DataSize)
}
