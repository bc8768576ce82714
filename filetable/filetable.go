// Package filetable is the in-memory table of open files. A file descriptor
// is the index of its slot; the lowest free slot is always used next.
package filetable

import (
	"fmt"

	"github.com/mit-pdos/go-tinyfs/common"
)

type Fd int

// Entry is the state of one open file.
type Entry struct {
	Fd       Fd
	Inum     common.Bnum
	Name     string
	Pos      uint64
	Writable bool
}

type Table struct {
	slots []*Entry
}

func MkTable(capacity uint64) *Table {
	return &Table{slots: make([]*Entry, capacity)}
}

func (t *Table) Cap() int {
	return len(t.slots)
}

// Len is the number of open files.
func (t *Table) Len() int {
	n := 0
	for _, e := range t.slots {
		if e != nil {
			n++
		}
	}
	return n
}

// Open registers inode ino under name with the pointer at 0 and write access.
func (t *Table) Open(ino common.Bnum, name string) (Fd, error) {
	for i, e := range t.slots {
		if e == nil {
			t.slots[i] = &Entry{
				Fd:       Fd(i),
				Inum:     ino,
				Name:     name,
				Writable: true,
			}
			return Fd(i), nil
		}
	}
	return -1, fmt.Errorf("%d files open: %w", len(t.slots), common.ErrTableFull)
}

func (t *Table) Lookup(fd Fd) (*Entry, error) {
	if fd < 0 || int(fd) >= len(t.slots) || t.slots[fd] == nil {
		return nil, fmt.Errorf("descriptor %d: %w", fd, common.ErrNotFound)
	}
	return t.slots[fd], nil
}

func (t *Table) Close(fd Fd) error {
	if _, err := t.Lookup(fd); err != nil {
		return err
	}
	t.slots[fd] = nil
	return nil
}

// CloseInode closes every descriptor open on ino and returns how many there
// were.
func (t *Table) CloseInode(ino common.Bnum) int {
	n := 0
	for i, e := range t.slots {
		if e != nil && e.Inum == ino {
			t.slots[i] = nil
			n++
		}
	}
	return n
}

// SetWritable sets write access on every descriptor open under name.
func (t *Table) SetWritable(name string, writable bool) error {
	n := 0
	for _, e := range t.slots {
		if e != nil && e.Name == name {
			e.Writable = writable
			n++
		}
	}
	if n == 0 {
		return fmt.Errorf("%q is not open: %w", name, common.ErrNotFound)
	}
	return nil
}

// Rename updates the name recorded by every descriptor open on ino.
func (t *Table) Rename(ino common.Bnum, name string) {
	for _, e := range t.slots {
		if e != nil && e.Inum == ino {
			e.Name = name
		}
	}
}

// Remap moves descriptors to the inode numbers given by remap. Descriptors on
// inodes missing from remap are left alone.
func (t *Table) Remap(remap map[common.Bnum]common.Bnum) {
	for _, e := range t.slots {
		if e == nil {
			continue
		}
		if ino, ok := remap[e.Inum]; ok {
			e.Inum = ino
		}
	}
}

// Clear closes everything.
func (t *Table) Clear() {
	for i := range t.slots {
		t.slots[i] = nil
	}
}
