// Package tinyfs is a flat, single-volume file system stored in one host file
// treated as a block device.
//
// An FS is a session: it mounts at most one volume at a time and owns the
// table of open files. Files are created by opening a new name, rewritten as
// a whole with WriteFile, and read or patched one byte at a time at the file
// pointer.
//
// Volume layout: block 0 is the superblock, whose link heads the chain of
// free blocks. Every other block is free, an inode (one per file) or an
// extent (DataSize bytes of one file's content, chained from its inode).
// Nothing is journaled; a crash in the middle of an operation can leave the
// chains inconsistent.
package tinyfs

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mit-pdos/go-tinyfs/alloc"
	"github.com/mit-pdos/go-tinyfs/block"
	"github.com/mit-pdos/go-tinyfs/common"
	"github.com/mit-pdos/go-tinyfs/disk"
	"github.com/mit-pdos/go-tinyfs/filetable"
	"github.com/mit-pdos/go-tinyfs/inode"
	"github.com/mit-pdos/go-tinyfs/util"
)

const (
	BlockSize       = common.BlockSize
	DataSize        = common.DataSize
	DefaultDiskSize = common.DefaultDiskSize
	DefaultDiskName = common.DefaultDiskName
)

type Fd = filetable.Fd

type FS struct {
	opener disk.Opener
	clock  func() time.Time

	// mount state; d is nil when nothing is mounted
	d       disk.Disk
	name    string
	nblocks uint64
	alloc   *alloc.Alloc
	inodes  *inode.Manager
	files   *filetable.Table
}

func New(opts ...Option) *FS {
	f := &FS{
		opener: disk.Open,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *FS) mounted() error {
	if f.d == nil {
		return common.ErrNotMounted
	}
	return nil
}

// Format creates (or overwrites) the volume name with nBytes of space,
// rounded down to whole blocks; nBytes == 0 means DefaultDiskSize. The new
// volume has no files and every block but the superblock is free.
func (f *FS) Format(name string, nBytes uint64) error {
	if nBytes == 0 {
		nBytes = DefaultDiskSize
	}
	nblocks := disk.NumBlocks(nBytes)
	if nblocks < common.MinBlocks || nblocks > common.MaxBlocks {
		return fmt.Errorf("format %s: %d blocks, want %d to %d: %w", name,
			nblocks, common.MinBlocks, common.MaxBlocks, common.ErrOutOfRange)
	}
	if f.d != nil && f.name == name {
		return fmt.Errorf("format %s: %w", name, common.ErrAlreadyMounted)
	}
	d, err := f.opener(name, nBytes)
	if err != nil {
		return err
	}
	sb := &block.Super{NumBlocks: nblocks, VolumeID: uuid.New()}
	if err := alloc.Reset(d, sb); err != nil {
		d.Close()
		return fmt.Errorf("format %s: %w", name, err)
	}
	if err := d.Barrier(); err != nil {
		d.Close()
		return err
	}
	util.DPrintf(1, "format %s: %d blocks, volume %v\n", name, nblocks, sb.VolumeID)
	return d.Close()
}

// check validates every block of a volume and its free chain.
func check(d disk.Disk, nblocks uint64) error {
	data, err := d.Read(common.SUPERBNUM)
	if err != nil {
		return err
	}
	sb, err := block.DecodeSuper(data)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrNotFormatted, err)
	}
	if sb.NumBlocks != 0 && sb.NumBlocks != nblocks {
		return fmt.Errorf("%w: superblock records %d blocks, device has %d",
			common.ErrFormat, sb.NumBlocks, nblocks)
	}
	for bn := common.Bnum(1); bn < nblocks; bn++ {
		data, err := d.Read(bn)
		if err != nil {
			return err
		}
		b, err := block.Decode(data)
		if err != nil {
			return fmt.Errorf("block %d: %w", bn, err)
		}
		if b.Type() == block.TypeSuper {
			return fmt.Errorf("%w: second superblock at %d", common.ErrFormat, bn)
		}
		if b.Link() >= nblocks {
			return fmt.Errorf("%w: block %d links to %d", common.ErrFormat, bn, b.Link())
		}
	}
	_, err = alloc.MkAlloc(d, nblocks).FreeList()
	return err
}

// Mount opens and checks the volume name.
func (f *FS) Mount(name string) error {
	if f.d != nil {
		return fmt.Errorf("mount %s: %s is mounted: %w", name, f.name, common.ErrAlreadyMounted)
	}
	d, err := f.opener(name, 0)
	if err != nil {
		return err
	}
	nblocks, err := d.Size()
	if err != nil {
		d.Close()
		return err
	}
	if nblocks < common.MinBlocks || nblocks > common.MaxBlocks {
		d.Close()
		return fmt.Errorf("mount %s: %d blocks: %w", name, nblocks, common.ErrNotFormatted)
	}
	if err := check(d, nblocks); err != nil {
		d.Close()
		return fmt.Errorf("mount %s: %w", name, err)
	}

	f.d = d
	f.name = name
	f.nblocks = nblocks
	f.alloc = alloc.MkAlloc(d, nblocks)
	f.inodes = inode.MkManager(d, nblocks, f.alloc, f.clock)
	f.files = filetable.MkTable(nblocks - 1)
	util.DPrintf(1, "mount %s: %d blocks\n", name, nblocks)
	return nil
}

// Unmount closes every open file and releases the volume.
func (f *FS) Unmount() error {
	if err := f.mounted(); err != nil {
		return err
	}
	d := f.d
	f.files.Clear()
	f.d = nil
	f.alloc = nil
	f.inodes = nil
	f.files = nil
	util.DPrintf(1, "unmount %s\n", f.name)
	if err := d.Barrier(); err != nil {
		d.Close()
		return err
	}
	return d.Close()
}

type VolumeInfo struct {
	Name       string
	VolumeID   uuid.UUID
	NumBlocks  uint64
	FreeBlocks uint64
	OpenFiles  int
}

func (f *FS) VolumeInfo() (VolumeInfo, error) {
	if err := f.mounted(); err != nil {
		return VolumeInfo{}, err
	}
	sb, err := f.alloc.Super()
	if err != nil {
		return VolumeInfo{}, err
	}
	free, err := f.alloc.NumFree()
	if err != nil {
		return VolumeInfo{}, err
	}
	return VolumeInfo{
		Name:       f.name,
		VolumeID:   sb.VolumeID,
		NumBlocks:  f.nblocks,
		FreeBlocks: free,
		OpenFiles:  f.files.Len(),
	}, nil
}
