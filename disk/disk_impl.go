package disk

import (
	"fmt"
	"io"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/mit-pdos/go-tinyfs/common"
	"github.com/mit-pdos/go-tinyfs/util"
)

var _ Disk = (*fileDisk)(nil)

type fileDisk struct {
	path      string
	fd        int
	numBlocks uint64
}

// Open is the Opener for disks backed by a host file.
func Open(path string, nBytes uint64) (Disk, error) {
	var d *fileDisk
	var err error
	if nBytes == 0 {
		d, err = openFileDisk(path)
	} else {
		d, err = NewFileDisk(path, nBytes)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func openFileDisk(path string) (*fileDisk, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", common.ErrDeviceUnavailable, path, err)
	}
	var stat unix.Stat_t
	err = unix.Fstat(fd, &stat)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: stat %s: %v", common.ErrDeviceUnavailable, path, err)
	}
	numBlocks := NumBlocks(uint64(stat.Size))
	if numBlocks == 0 {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: %s is smaller than one block", common.ErrDeviceUnavailable, path)
	}
	util.DPrintf(1, "disk: opened %s, %d blocks\n", path, numBlocks)
	return &fileDisk{path: path, fd: fd, numBlocks: numBlocks}, nil
}

// NewFileDisk creates or truncates path and sizes it to nBytes rounded down
// to whole blocks.
func NewFileDisk(path string, nBytes uint64) (*fileDisk, error) {
	numBlocks := NumBlocks(nBytes)
	if numBlocks == 0 {
		return nil, fmt.Errorf("%w: size %d is smaller than one block",
			common.ErrDeviceUnavailable, nBytes)
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_TRUNC, 0666)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", common.ErrDeviceUnavailable, path, err)
	}
	err = unix.Ftruncate(fd, int64(numBlocks*BlockSize))
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: truncate %s: %v", common.ErrDeviceUnavailable, path, err)
	}
	util.DPrintf(1, "disk: created %s, %d blocks\n", path, numBlocks)
	return &fileDisk{path: path, fd: fd, numBlocks: numBlocks}, nil
}

func (d *fileDisk) ReadTo(a uint64, buf Block) error {
	if uint64(len(buf)) != BlockSize {
		panic("buffer is not block-sized")
	}
	if a >= d.numBlocks {
		return fmt.Errorf("read %d of %d: %w", a, d.numBlocks, ErrBadBlock)
	}
	n, err := unix.Pread(d.fd, buf, int64(a*BlockSize))
	if err != nil {
		return fmt.Errorf("read %d: %w", a, err)
	}
	if uint64(n) != BlockSize {
		return fmt.Errorf("read %d: %w", a, io.ErrUnexpectedEOF)
	}
	util.DPrintf(20, "read: %v-%v\n", a, buf)
	return nil
}

func (d *fileDisk) Read(a uint64) (Block, error) {
	buf := make([]byte, BlockSize)
	err := d.ReadTo(a, buf)
	return buf, err
}

func (d *fileDisk) Write(a uint64, v Block) error {
	if uint64(len(v)) != BlockSize {
		panic(fmt.Errorf("v is not block sized (%d bytes)", len(v)))
	}
	if a >= d.numBlocks {
		return fmt.Errorf("write %d of %d: %w", a, d.numBlocks, ErrBadBlock)
	}
	n, err := unix.Pwrite(d.fd, v, int64(a*BlockSize))
	if err != nil {
		return fmt.Errorf("write %d: %w", a, err)
	}
	if uint64(n) != BlockSize {
		return fmt.Errorf("write %d: %w", a, io.ErrShortWrite)
	}
	util.DPrintf(20, "write: %v-%v\n", a, v)
	return nil
}

func (d *fileDisk) Size() (uint64, error) {
	return d.numBlocks, nil
}

func (d *fileDisk) Barrier() error {
	// NOTE: on macOS, this flushes to the drive but doesn't actually issue a
	// disk barrier; see https://golang.org/src/internal/poll/fd_fsync_darwin.go
	// for more details. The correct replacement is to issue a fcntl syscall with
	// cmd F_FULLFSYNC.
	err := unix.Fsync(d.fd)
	if err != nil {
		return fmt.Errorf("sync %s: %w", d.path, err)
	}
	util.DPrintf(20, "barrier\n")
	return nil
}

func (d *fileDisk) Close() error {
	err := unix.Close(d.fd)
	if err != nil {
		return fmt.Errorf("close %s: %w", d.path, err)
	}
	d.fd = -1
	return nil
}

/////////////////////////
/////////////////////////

var _ Disk = (*memDisk)(nil)

type memDisk struct {
	l      *sync.RWMutex
	blocks [][BlockSize]byte
}

func NewMemDisk(numBlocks uint64) *memDisk {
	blocks := make([][BlockSize]byte, numBlocks)
	return &memDisk{l: new(sync.RWMutex), blocks: blocks}
}

func (d *memDisk) ReadTo(a uint64, buf Block) error {
	if uint64(len(buf)) != BlockSize {
		panic("buffer is not block-sized")
	}
	d.l.RLock()
	defer d.l.RUnlock()
	if a >= uint64(len(d.blocks)) {
		return fmt.Errorf("read %d of %d: %w", a, len(d.blocks), ErrBadBlock)
	}
	copy(buf, d.blocks[a][:])
	return nil
}

func (d *memDisk) Read(a uint64) (Block, error) {
	buf := make(Block, BlockSize)
	err := d.ReadTo(a, buf)
	return buf, err
}

func (d *memDisk) Write(a uint64, v Block) error {
	if uint64(len(v)) != BlockSize {
		panic(fmt.Errorf("v is not block-sized (%d bytes)", len(v)))
	}
	d.l.Lock()
	defer d.l.Unlock()
	if a >= uint64(len(d.blocks)) {
		return fmt.Errorf("write %d of %d: %w", a, len(d.blocks), ErrBadBlock)
	}
	copy(d.blocks[a][:], v)
	return nil
}

func (d *memDisk) Size() (uint64, error) {
	// this never changes so we assume it's safe to run lock-free
	return uint64(len(d.blocks)), nil
}

func (d *memDisk) Barrier() error { return nil }

func (d *memDisk) Close() error { return nil }
