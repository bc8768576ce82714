package inode

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-tinyfs/alloc"
	"github.com/mit-pdos/go-tinyfs/block"
	"github.com/mit-pdos/go-tinyfs/common"
	"github.com/mit-pdos/go-tinyfs/disk"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) tick() {
	c.t = c.t.Add(time.Second)
}

func mkManager(t *testing.T, n uint64) (*Manager, *alloc.Alloc, *fakeClock) {
	d := disk.NewMemDisk(n)
	require.NoError(t, alloc.Reset(d, &block.Super{NumBlocks: n}))
	a := alloc.MkAlloc(d, n)
	c := &fakeClock{t: time.Unix(1700000000, 0)}
	return MkManager(d, n, a, c.now), a, c
}

func TestCreateLookup(t *testing.T) {
	assert := assert.New(t)
	m, _, c := mkManager(t, 40)

	ino, created, err := m.FindOrCreate("afile")
	require.NoError(t, err)
	assert.True(created)
	assert.Equal(common.Bnum(1), ino)

	ib, err := m.Stat(ino)
	require.NoError(t, err)
	assert.Equal("afile", ib.Name)
	assert.Equal(uint64(0), ib.Size)
	assert.Equal(c.t.Unix(), ib.Created)
	assert.Equal(common.NULLBNUM, ib.Next)

	c.tick()
	ino2, created, err := m.FindOrCreate("afile")
	require.NoError(t, err)
	assert.False(created)
	assert.Equal(ino, ino2)
	ib, _ = m.Stat(ino)
	assert.Equal(c.t.Unix(), ib.Accessed, "open refreshes access time")
	assert.Equal(c.t.Unix()-1, ib.Modified)

	_, err = m.Lookup("bfile")
	assert.ErrorIs(err, common.ErrNotFound)

	_, _, err = m.FindOrCreate("toolongname")
	assert.ErrorIs(err, common.ErrNameTooLong)
}

func TestOverwrite(t *testing.T) {
	assert := assert.New(t)
	m, a, _ := mkManager(t, 40)
	ino, _, err := m.FindOrCreate("f")
	require.NoError(t, err)

	data := bytes.Repeat([]byte("0123456789"), 60) // 3 extents
	require.NoError(t, m.Overwrite(ino, data))
	size, err := m.Size(ino)
	require.NoError(t, err)
	assert.Equal(uint64(600), size)
	chain, err := m.Chain(ino)
	require.NoError(t, err)
	assert.Len(chain, 3)

	var got []byte
	for hop := uint64(1); hop <= 3; hop++ {
		_, e, err := m.ExtentAt(ino, hop)
		require.NoError(t, err)
		got = append(got, e.Data[:]...)
	}
	assert.Equal(data, got[:600])

	free, _ := a.NumFree()
	assert.Equal(uint64(39-4), free)

	require.NoError(t, m.Overwrite(ino, []byte("short")))
	chain, _ = m.Chain(ino)
	assert.Len(chain, 1)
	free, _ = a.NumFree()
	assert.Equal(uint64(39-2), free, "old extents should be released")

	require.NoError(t, m.Overwrite(ino, nil))
	chain, _ = m.Chain(ino)
	assert.Empty(chain)
	_, _, err = m.ExtentAt(ino, 1)
	assert.ErrorIs(err, common.ErrFormat)
}

func TestOverwriteFull(t *testing.T) {
	assert := assert.New(t)
	m, a, _ := mkManager(t, 6)
	ino, _, err := m.FindOrCreate("f")
	require.NoError(t, err)
	require.NoError(t, m.Overwrite(ino, make([]byte, 10)))

	err = m.Overwrite(ino, make([]byte, 5*common.DataSize))
	assert.ErrorIs(err, common.ErrDiskFull)
	ib, _ := m.Stat(ino)
	assert.Equal(uint64(0), ib.Size, "failed write leaves the file empty")
	assert.Equal(common.NULLBNUM, ib.Next)
	free, _ := a.NumFree()
	assert.Equal(uint64(4), free, "no extent should be lost")

	// a rewrite that fits in the released blocks succeeds
	assert.NoError(m.Overwrite(ino, make([]byte, 4*common.DataSize)))
}

func TestDelete(t *testing.T) {
	assert := assert.New(t)
	m, a, _ := mkManager(t, 40)
	ino, _, _ := m.FindOrCreate("f")
	require.NoError(t, m.Overwrite(ino, make([]byte, 300)))
	other, _, _ := m.FindOrCreate("g")

	require.NoError(t, m.Delete(ino))
	free, _ := a.NumFree()
	assert.Equal(uint64(38), free)
	_, err := m.Lookup("f")
	assert.ErrorIs(err, common.ErrNotFound)

	inos, err := m.List()
	require.NoError(t, err)
	assert.Equal([]common.Bnum{other}, inos)
}

func TestRename(t *testing.T) {
	assert := assert.New(t)
	m, _, _ := mkManager(t, 10)
	ino, _, _ := m.FindOrCreate("f")
	_, _, _ = m.FindOrCreate("g")

	assert.ErrorIs(m.Rename(ino, "g"), common.ErrExists)
	assert.ErrorIs(m.Rename(ino, "123456789"), common.ErrNameTooLong)
	assert.NoError(m.Rename(ino, "h"))
	found, err := m.Lookup("h")
	assert.NoError(err)
	assert.Equal(ino, found)
	assert.NoError(m.Rename(ino, "h"), "renaming to the same name is allowed")
}

func TestClockError(t *testing.T) {
	m, _, c := mkManager(t, 10)
	c.t = time.Unix(0, 0)
	_, _, err := m.FindOrCreate("f")
	assert.ErrorIs(t, err, common.ErrClock)
}

func TestLoadNotInode(t *testing.T) {
	m, _, _ := mkManager(t, 10)
	_, err := m.Stat(3)
	assert.ErrorIs(t, err, common.ErrFormat, "free block is not an inode")
	_, err = m.Stat(0)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
