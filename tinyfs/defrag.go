package tinyfs

import (
	"strings"

	"github.com/mit-pdos/go-tinyfs/alloc"
	"github.com/mit-pdos/go-tinyfs/block"
	"github.com/mit-pdos/go-tinyfs/buf"
	"github.com/mit-pdos/go-tinyfs/common"
	"github.com/mit-pdos/go-tinyfs/util"
)

// FragmentMap is the type of every block of the volume, by block number.
type FragmentMap []block.Type

// String draws the map one letter per block: S(uper), I(node), E(xtent),
// F(ree).
func (m FragmentMap) String() string {
	var sb strings.Builder
	for _, t := range m {
		switch t {
		case block.TypeSuper:
			sb.WriteByte('S')
		case block.TypeInode:
			sb.WriteByte('I')
		case block.TypeExtent:
			sb.WriteByte('E')
		case block.TypeFree:
			sb.WriteByte('F')
		default:
			sb.WriteByte('?')
		}
	}
	return sb.String()
}

// Fragments reads the type of every block.
func (f *FS) Fragments() (FragmentMap, error) {
	if err := f.mounted(); err != nil {
		return nil, err
	}
	m := make(FragmentMap, 0, f.nblocks)
	for bn := common.Bnum(0); bn < f.nblocks; bn++ {
		b, err := buf.MkBufLoad(f.d, bn)
		if err != nil {
			return nil, err
		}
		m = append(m, b.Type())
	}
	return m, nil
}

// Defrag rewrites every file into one contiguous run of blocks starting at
// block 1, each inode followed by its extents, leaving the free chain as a
// single run at the end of the volume. Open descriptors follow their files
// to the new inode blocks.
func (f *FS) Defrag() error {
	if err := f.mounted(); err != nil {
		return err
	}
	inos, err := f.inodes.List()
	if err != nil {
		return err
	}

	// scanning: copy each inode and its extents, in order, into memory
	var runs [][]*buf.Buf
	total := uint64(0)
	for _, ino := range inos {
		chain, err := f.inodes.Chain(ino)
		if err != nil {
			return err
		}
		run := make([]*buf.Buf, 0, len(chain)+1)
		for _, bn := range append([]common.Bnum{ino}, chain...) {
			b, err := buf.MkBufLoad(f.d, bn)
			if err != nil {
				return err
			}
			run = append(run, b)
		}
		runs = append(runs, run)
		total += uint64(len(run))
	}

	// rewriting
	sb, err := f.alloc.Super()
	if err != nil {
		return err
	}
	sb.NumBlocks = f.nblocks
	if err := alloc.Reset(f.d, sb); err != nil {
		return err
	}
	bns, err := f.alloc.AllocNums(total)
	if err != nil {
		return err
	}
	remap := make(map[common.Bnum]common.Bnum)
	k := 0
	for _, run := range runs {
		remap[run[0].Blkno] = bns[k]
		for j, b := range run {
			next := common.NULLBNUM
			if j+1 < len(run) {
				next = bns[k+1]
			}
			b.Blkno = bns[k]
			b.BnumPut(next)
			if err := b.WriteDirect(f.d); err != nil {
				return err
			}
			k++
		}
	}
	f.files.Remap(remap)
	util.DPrintf(1, "defrag %s: %d files in %d blocks\n", f.name, len(runs), total)
	return nil
}
