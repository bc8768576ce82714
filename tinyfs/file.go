package tinyfs

import (
	"fmt"
	"time"

	"github.com/mit-pdos/go-tinyfs/block"
	"github.com/mit-pdos/go-tinyfs/common"
	"github.com/mit-pdos/go-tinyfs/filetable"
	"github.com/mit-pdos/go-tinyfs/util"
)

// FileInfo describes a file, as reported by Stat and ReadDir.
type FileInfo struct {
	Name     string
	Size     uint64
	Created  time.Time
	Modified time.Time
	Accessed time.Time
}

func mkFileInfo(ib *block.Inode) FileInfo {
	return FileInfo{
		Name:     ib.Name,
		Size:     ib.Size,
		Created:  time.Unix(ib.Created, 0),
		Modified: time.Unix(ib.Modified, 0),
		Accessed: time.Unix(ib.Accessed, 0),
	}
}

func (f *FS) lookup(fd Fd) (*filetable.Entry, error) {
	if err := f.mounted(); err != nil {
		return nil, err
	}
	return f.files.Lookup(fd)
}

func (f *FS) lookupWritable(fd Fd) (*filetable.Entry, error) {
	e, err := f.lookup(fd)
	if err != nil {
		return nil, err
	}
	if !e.Writable {
		return nil, fmt.Errorf("%q (descriptor %d): %w", e.Name, fd, common.ErrReadOnly)
	}
	return e, nil
}

// Open opens the file name for reading and writing, creating it empty if it
// does not exist. Each call returns a new descriptor with its file pointer
// at 0.
func (f *FS) Open(name string) (Fd, error) {
	if err := f.mounted(); err != nil {
		return -1, err
	}
	if err := block.ValidName(name); err != nil {
		return -1, err
	}
	if f.files.Len() == f.files.Cap() {
		return -1, fmt.Errorf("open %q: %w", name, common.ErrTableFull)
	}
	ino, _, err := f.inodes.FindOrCreate(name)
	if err != nil {
		return -1, fmt.Errorf("open %q: %w", name, err)
	}
	fd, err := f.files.Open(ino, name)
	if err != nil {
		return -1, err
	}
	util.DPrintf(3, "open %q: fd %d inode %d\n", name, fd, ino)
	return fd, nil
}

func (f *FS) Close(fd Fd) error {
	if err := f.mounted(); err != nil {
		return err
	}
	util.DPrintf(3, "close fd %d\n", fd)
	return f.files.Close(fd)
}

// WriteFile replaces the whole content of the file with data and resets the
// file pointer to 0.
func (f *FS) WriteFile(fd Fd, data []byte) error {
	e, err := f.lookupWritable(fd)
	if err != nil {
		return err
	}
	e.Pos = 0
	return f.inodes.Overwrite(e.Inum, data)
}

// DeleteFile removes the file and closes every descriptor open on it,
// including fd.
func (f *FS) DeleteFile(fd Fd) error {
	e, err := f.lookupWritable(fd)
	if err != nil {
		return err
	}
	ino := e.Inum
	if err := f.inodes.Delete(ino); err != nil {
		return err
	}
	n := f.files.CloseInode(ino)
	util.DPrintf(3, "delete %q: closed %d descriptors\n", e.Name, n)
	return nil
}

// Rename gives the file open at fd a new name.
func (f *FS) Rename(fd Fd, name string) error {
	e, err := f.lookupWritable(fd)
	if err != nil {
		return err
	}
	if err := f.inodes.Rename(e.Inum, name); err != nil {
		return err
	}
	f.files.Rename(e.Inum, name)
	return nil
}

// SetReadOnly revokes write access from every descriptor currently open on
// name. It is a property of the descriptors, not of the file: it is not
// stored on the volume and files opened later are writable.
func (f *FS) SetReadOnly(name string) error {
	if err := f.mounted(); err != nil {
		return err
	}
	return f.files.SetWritable(name, false)
}

// SetReadWrite restores write access to every descriptor open on name.
func (f *FS) SetReadWrite(name string) error {
	if err := f.mounted(); err != nil {
		return err
	}
	return f.files.SetWritable(name, true)
}

func (f *FS) Stat(fd Fd) (FileInfo, error) {
	e, err := f.lookup(fd)
	if err != nil {
		return FileInfo{}, err
	}
	ib, err := f.inodes.Stat(e.Inum)
	if err != nil {
		return FileInfo{}, err
	}
	return mkFileInfo(ib), nil
}

// ReadDir lists every file on the volume in block order.
func (f *FS) ReadDir() ([]FileInfo, error) {
	if err := f.mounted(); err != nil {
		return nil, err
	}
	inos, err := f.inodes.List()
	if err != nil {
		return nil, err
	}
	infos := make([]FileInfo, 0, len(inos))
	for _, ino := range inos {
		ib, err := f.inodes.Stat(ino)
		if err != nil {
			return nil, err
		}
		infos = append(infos, mkFileInfo(ib))
	}
	return infos, nil
}
