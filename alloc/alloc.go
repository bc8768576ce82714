package alloc

import (
	"fmt"

	"github.com/mit-pdos/go-tinyfs/block"
	"github.com/mit-pdos/go-tinyfs/buf"
	"github.com/mit-pdos/go-tinyfs/common"
	"github.com/mit-pdos/go-tinyfs/disk"
	"github.com/mit-pdos/go-tinyfs/util"
)

// Alloc hands out blocks from the free chain. The superblock's link is the
// head of the chain, each free block links to the next, and the tail links to
// 0. Block 0 is never allocated.
type Alloc struct {
	d       disk.Disk
	nblocks uint64
}

func MkAlloc(d disk.Disk, nblocks uint64) *Alloc {
	a := &Alloc{
		d:       d,
		nblocks: nblocks,
	}
	return a
}

// Reset writes sb to block 0 and threads every other block of the volume
// onto a fresh free chain 1, 2, ..., NumBlocks-1.
func Reset(d disk.Disk, sb *block.Super) error {
	n := sb.NumBlocks
	sb.FreeHead = common.NULLBNUM
	if n > 1 {
		sb.FreeHead = 1
	}
	if err := d.Write(common.SUPERBNUM, block.Encode(sb)); err != nil {
		return err
	}
	for bn := common.Bnum(1); bn < n; bn++ {
		next := bn + 1
		if next == n {
			next = common.NULLBNUM
		}
		if err := d.Write(bn, block.Encode(&block.Free{Next: next})); err != nil {
			return err
		}
	}
	util.DPrintf(1, "alloc: reset %d blocks\n", n)
	return nil
}

func (a *Alloc) readSuper() (*buf.Buf, *block.Super, error) {
	b, err := buf.MkBufLoad(a.d, common.SUPERBNUM)
	if err != nil {
		return nil, nil, err
	}
	sb, err := b.Super()
	if err != nil {
		return nil, nil, err
	}
	return b, sb, nil
}

// Super reads the superblock.
func (a *Alloc) Super() (*block.Super, error) {
	_, sb, err := a.readSuper()
	return sb, err
}

// next returns the link of free block bn.
func (a *Alloc) next(bn common.Bnum) (common.Bnum, error) {
	if bn >= a.nblocks {
		return 0, fmt.Errorf("%w: free chain links to block %d of %d",
			common.ErrFormat, bn, a.nblocks)
	}
	b, err := buf.MkBufLoad(a.d, bn)
	if err != nil {
		return 0, err
	}
	if b.Type() != block.TypeFree {
		return 0, fmt.Errorf("%w: block %d on free chain is a %v block",
			common.ErrFormat, bn, b.Type())
	}
	return b.BnumGet(), nil
}

// walk follows the free chain from head, collecting up to max blocks. It
// returns the collected blocks and the link after the last one.
func (a *Alloc) walk(head common.Bnum, max uint64) ([]common.Bnum, common.Bnum, error) {
	seen := make(map[common.Bnum]bool)
	var bns []common.Bnum
	cur := head
	for cur != common.NULLBNUM && uint64(len(bns)) < max {
		if seen[cur] {
			return nil, 0, fmt.Errorf("%w: free chain loops at block %d",
				common.ErrFormat, cur)
		}
		seen[cur] = true
		next, err := a.next(cur)
		if err != nil {
			return nil, 0, err
		}
		util.DPrintf(5, "walk: %d -> %d\n", cur, next)
		bns = append(bns, cur)
		cur = next
	}
	return bns, cur, nil
}

// AllocNums pops n blocks off the head of the free chain. The superblock is
// only written once all n blocks have been found, so ErrDiskFull leaves the
// chain untouched. The returned blocks still hold their free-block contents;
// the caller overwrites them.
func (a *Alloc) AllocNums(n uint64) ([]common.Bnum, error) {
	if n == 0 {
		return nil, nil
	}
	if n >= a.nblocks {
		return nil, fmt.Errorf("allocate %d blocks: %w", n, common.ErrDiskFull)
	}
	sbuf, sb, err := a.readSuper()
	if err != nil {
		return nil, err
	}
	bns, rest, err := a.walk(sb.FreeHead, n)
	if err != nil {
		return nil, err
	}
	if uint64(len(bns)) < n {
		return nil, fmt.Errorf("allocate %d blocks, %d free: %w",
			n, len(bns), common.ErrDiskFull)
	}
	sbuf.BnumPut(rest)
	if err := sbuf.Flush(a.d); err != nil {
		return nil, err
	}
	util.DPrintf(5, "AllocNums: %v, free head %d\n", bns, rest)
	return bns, nil
}

func (a *Alloc) AllocNum() (common.Bnum, error) {
	bns, err := a.AllocNums(1)
	if err != nil {
		return common.NULLBNUM, err
	}
	return bns[0], nil
}

// FreeNums appends bns, in order, to the tail of the free chain.
func (a *Alloc) FreeNums(bns []common.Bnum) error {
	if len(bns) == 0 {
		return nil
	}
	for _, bn := range bns {
		if bn == common.SUPERBNUM || bn >= a.nblocks {
			panic(fmt.Errorf("FreeNums: block %d", bn))
		}
	}
	for i, bn := range bns {
		next := common.NULLBNUM
		if i+1 < len(bns) {
			next = bns[i+1]
		}
		if err := a.d.Write(bn, block.Encode(&block.Free{Next: next})); err != nil {
			return err
		}
	}

	sbuf, sb, err := a.readSuper()
	if err != nil {
		return err
	}
	if sb.FreeHead == common.NULLBNUM {
		sbuf.BnumPut(bns[0])
		return sbuf.Flush(a.d)
	}
	chain, _, err := a.walk(sb.FreeHead, a.nblocks)
	if err != nil {
		return err
	}
	tail := chain[len(chain)-1]
	util.DPrintf(5, "FreeNums: %v after tail %d\n", bns, tail)
	return a.d.Write(tail, block.Encode(&block.Free{Next: bns[0]}))
}

func (a *Alloc) FreeNum(bn common.Bnum) error {
	return a.FreeNums([]common.Bnum{bn})
}

// FreeList returns the free chain in order.
func (a *Alloc) FreeList() ([]common.Bnum, error) {
	_, sb, err := a.readSuper()
	if err != nil {
		return nil, err
	}
	bns, rest, err := a.walk(sb.FreeHead, a.nblocks)
	if err != nil {
		return nil, err
	}
	if rest != common.NULLBNUM {
		return nil, fmt.Errorf("%w: free chain longer than the volume", common.ErrFormat)
	}
	return bns, nil
}

func (a *Alloc) NumFree() (uint64, error) {
	bns, err := a.FreeList()
	return uint64(len(bns)), err
}
