package tinyfs

import (
	"fmt"
	"io"

	"github.com/mit-pdos/go-tinyfs/addr"
	"github.com/mit-pdos/go-tinyfs/buf"
	"github.com/mit-pdos/go-tinyfs/common"
	"github.com/mit-pdos/go-tinyfs/filetable"
	"github.com/mit-pdos/go-tinyfs/util"
)

// at checks that e's file pointer is inside the file.
func (f *FS) at(e *filetable.Entry) (addr.Addr, error) {
	size, err := f.inodes.Size(e.Inum)
	if err != nil {
		return addr.Addr{}, err
	}
	if e.Pos >= size {
		return addr.Addr{}, fmt.Errorf("%q: position %d, size %d: %w",
			e.Name, e.Pos, size, common.ErrOutOfRange)
	}
	return addr.MkPosAddr(e.Pos), nil
}

// ReadByteFrom returns the byte at the file pointer and advances the pointer.
func (f *FS) ReadByteFrom(fd Fd) (byte, error) {
	e, err := f.lookup(fd)
	if err != nil {
		return 0, err
	}
	a, err := f.at(e)
	if err != nil {
		return 0, err
	}
	_, ext, err := f.inodes.ExtentAt(e.Inum, a.Hops())
	if err != nil {
		return 0, err
	}
	v := ext.Data[a.Off]
	if err := f.inodes.Touch(e.Inum, false); err != nil {
		return 0, err
	}
	util.DPrintf(10, "ReadByteFrom fd %d pos %d: %v\n", fd, e.Pos, a)
	e.Pos++
	return v, nil
}

// WriteByteTo overwrites the byte at the file pointer and advances the
// pointer. It never grows the file.
func (f *FS) WriteByteTo(fd Fd, v byte) error {
	e, err := f.lookupWritable(fd)
	if err != nil {
		return err
	}
	a, err := f.at(e)
	if err != nil {
		return err
	}
	b, ext, err := f.inodes.ExtentAt(e.Inum, a.Hops())
	if err != nil {
		return err
	}
	ext.Data[a.Off] = v
	b.SetDirty()
	if err := b.Flush(f.d); err != nil {
		return err
	}
	if err := f.inodes.Touch(e.Inum, true); err != nil {
		return err
	}
	util.DPrintf(10, "WriteByteTo fd %d pos %d: %v\n", fd, e.Pos, a)
	e.Pos++
	return nil
}

// Read reads up to len(p) bytes from the file pointer. At the end of the
// file it returns 0, io.EOF.
func (f *FS) Read(fd Fd, p []byte) (int, error) {
	e, err := f.lookup(fd)
	if err != nil {
		return 0, err
	}
	size, err := f.inodes.Size(e.Inum)
	if err != nil {
		return 0, err
	}
	if e.Pos >= size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	chain, err := f.inodes.Chain(e.Inum)
	if err != nil {
		return 0, err
	}
	end := util.Min(size, e.Pos+uint64(len(p)))
	n := 0
	for pos := e.Pos; pos < end; {
		a := addr.MkPosAddr(pos)
		if a.Index >= uint64(len(chain)) {
			return n, fmt.Errorf("%w: %q has %d extents, size %d",
				common.ErrFormat, e.Name, len(chain), size)
		}
		b, err := buf.MkBufLoad(f.d, chain[a.Index])
		if err != nil {
			return n, err
		}
		ext, err := b.Extent()
		if err != nil {
			return n, err
		}
		c := copy(p[n:], ext.Data[a.Off:util.Min(common.DataSize, a.Off+end-pos)])
		n += c
		pos += uint64(c)
	}
	if err := f.inodes.Touch(e.Inum, false); err != nil {
		return n, err
	}
	e.Pos += uint64(n)
	return n, nil
}

// SeekTo moves the file pointer to offset, which must lie inside the file.
func (f *FS) SeekTo(fd Fd, offset int64) error {
	e, err := f.lookup(fd)
	if err != nil {
		return err
	}
	size, err := f.inodes.Size(e.Inum)
	if err != nil {
		return err
	}
	if offset < 0 || uint64(offset) >= size {
		return fmt.Errorf("%q: seek to %d, size %d: %w",
			e.Name, offset, size, common.ErrOutOfRange)
	}
	e.Pos = uint64(offset)
	return nil
}

// Tell returns the file pointer.
func (f *FS) Tell(fd Fd) (uint64, error) {
	e, err := f.lookup(fd)
	if err != nil {
		return 0, err
	}
	return e.Pos, nil
}
