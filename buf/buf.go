// buf holds one decoded block in memory, remembering whether it has been
// modified since it was loaded.
package buf

import (
	"fmt"

	"github.com/mit-pdos/go-tinyfs/block"
	"github.com/mit-pdos/go-tinyfs/common"
	"github.com/mit-pdos/go-tinyfs/disk"
	"github.com/mit-pdos/go-tinyfs/util"
)

// A Buf is a block (superblock, inode, extent or free block) and its address
type Buf struct {
	Blkno common.Bnum
	Blk   block.Block
	dirty bool // has this block been written to?
}

func MkBuf(blkno common.Bnum, blk block.Block) *Buf {
	b := &Buf{
		Blkno: blkno,
		Blk:   blk,
		dirty: false,
	}
	return b
}

// Load and decode block blkno
func MkBufLoad(d disk.Disk, blkno common.Bnum) (*Buf, error) {
	data, err := d.Read(blkno)
	if err != nil {
		return nil, err
	}
	blk, err := block.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("block %d: %w", blkno, err)
	}
	return MkBuf(blkno, blk), nil
}

func (buf *Buf) Type() block.Type {
	return buf.Blk.Type()
}

func (buf *Buf) wrongType(want block.Type) error {
	return fmt.Errorf("block %d: %w: expected %v block, found %v",
		buf.Blkno, common.ErrFormat, want, buf.Blk.Type())
}

func (buf *Buf) Super() (*block.Super, error) {
	b, ok := buf.Blk.(*block.Super)
	if !ok {
		return nil, buf.wrongType(block.TypeSuper)
	}
	return b, nil
}

func (buf *Buf) Inode() (*block.Inode, error) {
	b, ok := buf.Blk.(*block.Inode)
	if !ok {
		return nil, buf.wrongType(block.TypeInode)
	}
	return b, nil
}

func (buf *Buf) Extent() (*block.Extent, error) {
	b, ok := buf.Blk.(*block.Extent)
	if !ok {
		return nil, buf.wrongType(block.TypeExtent)
	}
	return b, nil
}

func (buf *Buf) IsDirty() bool {
	return buf.dirty
}

func (buf *Buf) SetDirty() {
	buf.dirty = true
}

// WriteDirect writes the block back regardless of the dirty bit.
func (buf *Buf) WriteDirect(d disk.Disk) error {
	util.DPrintf(15, "%d: write %v\n", buf.Blkno, buf.Blk.Type())
	err := d.Write(buf.Blkno, block.Encode(buf.Blk))
	if err != nil {
		return err
	}
	buf.dirty = false
	return nil
}

// Flush writes the block back if it was modified.
func (buf *Buf) Flush(d disk.Disk) error {
	if !buf.dirty {
		return nil
	}
	return buf.WriteDirect(d)
}

// BnumGet returns the block's link.
func (buf *Buf) BnumGet() common.Bnum {
	return buf.Blk.Link()
}

func (buf *Buf) BnumPut(v common.Bnum) {
	buf.Blk.SetLink(v)
	buf.SetDirty()
}
