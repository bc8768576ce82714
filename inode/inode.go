// Package inode manages files: one inode block per file holding its name,
// size and timestamps, linked to an ordered chain of extent blocks holding
// its content. Inodes are found by scanning the volume.
package inode

import (
	"errors"
	"fmt"
	"time"

	"github.com/mit-pdos/go-tinyfs/alloc"
	"github.com/mit-pdos/go-tinyfs/block"
	"github.com/mit-pdos/go-tinyfs/buf"
	"github.com/mit-pdos/go-tinyfs/common"
	"github.com/mit-pdos/go-tinyfs/disk"
	"github.com/mit-pdos/go-tinyfs/util"
)

type Manager struct {
	d       disk.Disk
	nblocks uint64
	alloc   *alloc.Alloc
	clock   func() time.Time
}

func MkManager(d disk.Disk, nblocks uint64, a *alloc.Alloc, clock func() time.Time) *Manager {
	return &Manager{
		d:       d,
		nblocks: nblocks,
		alloc:   a,
		clock:   clock,
	}
}

func (m *Manager) now() (int64, error) {
	t := m.clock()
	if t.Unix() <= 0 {
		return 0, fmt.Errorf("%w: clock reads %v", common.ErrClock, t)
	}
	return t.Unix(), nil
}

// Load reads inode block ino.
func (m *Manager) Load(ino common.Bnum) (*buf.Buf, *block.Inode, error) {
	if ino == common.SUPERBNUM || ino >= m.nblocks {
		return nil, nil, fmt.Errorf("inode %d: %w", ino, common.ErrNotFound)
	}
	b, err := buf.MkBufLoad(m.d, ino)
	if err != nil {
		return nil, nil, err
	}
	ib, err := b.Inode()
	if err != nil {
		return nil, nil, err
	}
	return b, ib, nil
}

func (m *Manager) Stat(ino common.Bnum) (*block.Inode, error) {
	_, ib, err := m.Load(ino)
	return ib, err
}

func (m *Manager) Size(ino common.Bnum) (uint64, error) {
	ib, err := m.Stat(ino)
	if err != nil {
		return 0, err
	}
	return ib.Size, nil
}

// scan calls f on every inode block, in block order, until f returns false.
func (m *Manager) scan(f func(bn common.Bnum, ib *block.Inode) bool) error {
	for bn := common.Bnum(1); bn < m.nblocks; bn++ {
		b, err := buf.MkBufLoad(m.d, bn)
		if err != nil {
			return err
		}
		ib, ok := b.Blk.(*block.Inode)
		if !ok {
			continue
		}
		if !f(bn, ib) {
			return nil
		}
	}
	return nil
}

// List returns the block number of every inode on the volume.
func (m *Manager) List() ([]common.Bnum, error) {
	var inos []common.Bnum
	err := m.scan(func(bn common.Bnum, ib *block.Inode) bool {
		inos = append(inos, bn)
		return true
	})
	return inos, err
}

// Lookup finds the inode named name.
func (m *Manager) Lookup(name string) (common.Bnum, error) {
	ino := common.NULLBNUM
	err := m.scan(func(bn common.Bnum, ib *block.Inode) bool {
		if ib.Name == name {
			ino = bn
			return false
		}
		return true
	})
	if err != nil {
		return common.NULLBNUM, err
	}
	if ino == common.NULLBNUM {
		return common.NULLBNUM, fmt.Errorf("%q: %w", name, common.ErrNotFound)
	}
	return ino, nil
}

// FindOrCreate returns the inode named name, creating an empty file if there
// is none. Finding an existing file refreshes its access time.
func (m *Manager) FindOrCreate(name string) (common.Bnum, bool, error) {
	if err := block.ValidName(name); err != nil {
		return common.NULLBNUM, false, err
	}
	ino, err := m.Lookup(name)
	if err == nil {
		return ino, false, m.Touch(ino, false)
	}
	if !errors.Is(err, common.ErrNotFound) {
		return common.NULLBNUM, false, err
	}

	now, err := m.now()
	if err != nil {
		return common.NULLBNUM, false, err
	}
	ino, err = m.alloc.AllocNum()
	if err != nil {
		return common.NULLBNUM, false, err
	}
	ib := &block.Inode{
		Name:     name,
		Created:  now,
		Modified: now,
		Accessed: now,
	}
	if err := buf.MkBuf(ino, ib).WriteDirect(m.d); err != nil {
		return common.NULLBNUM, false, err
	}
	util.DPrintf(3, "create %q: inode %d\n", name, ino)
	return ino, true, nil
}

// Touch refreshes the access time, and the modification time if modified.
func (m *Manager) Touch(ino common.Bnum, modified bool) error {
	now, err := m.now()
	if err != nil {
		return err
	}
	b, ib, err := m.Load(ino)
	if err != nil {
		return err
	}
	ib.Accessed = now
	if modified {
		ib.Modified = now
	}
	b.SetDirty()
	return b.Flush(m.d)
}

// chain follows extent links starting at head, for at most max hops.
func (m *Manager) chain(head common.Bnum, max uint64) ([]common.Bnum, error) {
	var bns []common.Bnum
	cur := head
	for cur != common.NULLBNUM && uint64(len(bns)) < max {
		if cur >= m.nblocks {
			return nil, fmt.Errorf("%w: extent link to block %d of %d",
				common.ErrFormat, cur, m.nblocks)
		}
		b, err := buf.MkBufLoad(m.d, cur)
		if err != nil {
			return nil, err
		}
		if _, err := b.Extent(); err != nil {
			return nil, err
		}
		bns = append(bns, cur)
		cur = b.BnumGet()
	}
	if cur != common.NULLBNUM && uint64(len(bns)) == m.nblocks {
		return nil, fmt.Errorf("%w: extent chain longer than the volume", common.ErrFormat)
	}
	return bns, nil
}

// Chain returns the extent blocks of ino, in file order.
func (m *Manager) Chain(ino common.Bnum) ([]common.Bnum, error) {
	ib, err := m.Stat(ino)
	if err != nil {
		return nil, err
	}
	return m.chain(ib.Next, m.nblocks)
}

// ExtentAt follows hops links from the inode and returns the extent reached.
func (m *Manager) ExtentAt(ino common.Bnum, hops uint64) (*buf.Buf, *block.Extent, error) {
	if hops == 0 || hops >= m.nblocks {
		return nil, nil, fmt.Errorf("%w: extent %d", common.ErrOutOfRange, hops)
	}
	ib, err := m.Stat(ino)
	if err != nil {
		return nil, nil, err
	}
	bns, err := m.chain(ib.Next, hops)
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(bns)) < hops {
		return nil, nil, fmt.Errorf("%w: inode %d has %d extents, want %d",
			common.ErrFormat, ino, len(bns), hops)
	}
	b, err := buf.MkBufLoad(m.d, bns[hops-1])
	if err != nil {
		return nil, nil, err
	}
	e, err := b.Extent()
	if err != nil {
		return nil, nil, err
	}
	return b, e, nil
}

// Overwrite replaces the content of ino with data. The old extents are
// released before new ones are allocated, so a file can be rewritten in
// place on a nearly full volume. If the allocation fails the file is left
// empty.
func (m *Manager) Overwrite(ino common.Bnum, data []byte) error {
	now, err := m.now()
	if err != nil {
		return err
	}
	b, ib, err := m.Load(ino)
	if err != nil {
		return err
	}
	old, err := m.chain(ib.Next, m.nblocks)
	if err != nil {
		return err
	}
	if err := m.alloc.FreeNums(old); err != nil {
		return err
	}

	ib.Modified = now
	ib.Accessed = now
	b.SetDirty()

	n := util.RoundUp(uint64(len(data)), common.DataSize)
	bns, err := m.alloc.AllocNums(n)
	if err != nil {
		if errors.Is(err, common.ErrDiskFull) {
			ib.Next = common.NULLBNUM
			ib.Size = 0
			if ferr := b.Flush(m.d); ferr != nil {
				return ferr
			}
		}
		return fmt.Errorf("write %d bytes to %q: %w", len(data), ib.Name, err)
	}

	for i, bn := range bns {
		e := &block.Extent{}
		if i+1 < len(bns) {
			e.Next = bns[i+1]
		}
		start := uint64(i) * common.DataSize
		copy(e.Data[:], data[start:util.Min(start+common.DataSize, uint64(len(data)))])
		if err := buf.MkBuf(bn, e).WriteDirect(m.d); err != nil {
			return err
		}
	}

	ib.Next = common.NULLBNUM
	if len(bns) > 0 {
		ib.Next = bns[0]
	}
	ib.Size = uint64(len(data))
	util.DPrintf(3, "overwrite %q: %d bytes in %v\n", ib.Name, len(data), bns)
	return b.Flush(m.d)
}

// Delete releases ino and all of its extents.
func (m *Manager) Delete(ino common.Bnum) error {
	bns, err := m.Chain(ino)
	if err != nil {
		return err
	}
	util.DPrintf(3, "delete inode %d: extents %v\n", ino, bns)
	return m.alloc.FreeNums(append([]common.Bnum{ino}, bns...))
}

// Rename changes the name of ino.
func (m *Manager) Rename(ino common.Bnum, name string) error {
	if err := block.ValidName(name); err != nil {
		return err
	}
	other, err := m.Lookup(name)
	if err == nil && other != ino {
		return fmt.Errorf("%q: %w", name, common.ErrExists)
	}
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}
	now, err := m.now()
	if err != nil {
		return err
	}
	b, ib, err := m.Load(ino)
	if err != nil {
		return err
	}
	ib.Name = name
	ib.Modified = now
	ib.Accessed = now
	b.SetDirty()
	return b.Flush(m.d)
}
