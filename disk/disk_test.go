package disk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-tinyfs/common"
)

func mkBlock(b byte) Block {
	block := make(Block, BlockSize)
	for i := range block {
		block[i] = b
	}
	return block
}

func testReadWrite(t *testing.T, d Disk) {
	assert := assert.New(t)
	sz, err := d.Size()
	require.NoError(t, err)

	assert.NoError(d.Write(0, mkBlock(1)))
	assert.NoError(d.Write(sz-1, mkBlock(2)))

	b, err := d.Read(0)
	assert.NoError(err)
	assert.Equal(mkBlock(1), b)

	b = make(Block, BlockSize)
	assert.NoError(d.ReadTo(sz-1, b))
	assert.Equal(mkBlock(2), b)

	_, err = d.Read(sz)
	assert.ErrorIs(err, ErrBadBlock)
	assert.ErrorIs(d.Write(sz, mkBlock(3)), ErrBadBlock)
	assert.NoError(d.Barrier())
}

func TestMemDisk(t *testing.T) {
	d := NewMemDisk(40)
	testReadWrite(t, d)
	assert.NoError(t, d.Close())
}

func TestFileDisk(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "disk.img")

	d, err := Open(path, common.DefaultDiskSize+100)
	require.NoError(t, err)
	sz, _ := d.Size()
	assert.Equal(uint64(40), sz, "size should be rounded down to whole blocks")

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(int64(40*BlockSize), fi.Size())

	testReadWrite(t, d)
	require.NoError(t, d.Close())

	// reopen existing
	d, err = Open(path, 0)
	require.NoError(t, err)
	b, err := d.Read(0)
	assert.NoError(err)
	assert.Equal(mkBlock(1), b, "data should persist across reopen")
	assert.NoError(d.Close())
}

func TestFileDiskErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(filepath.Join(dir, "missing"), 0)
	assert.ErrorIs(t, err, common.ErrDeviceUnavailable)

	_, err = Open(filepath.Join(dir, "tiny"), BlockSize-1)
	assert.ErrorIs(t, err, common.ErrDeviceUnavailable)
}

func TestStore(t *testing.T) {
	assert := assert.New(t)
	s := NewStore()

	_, err := s.Open("a", 0)
	assert.ErrorIs(err, common.ErrDeviceUnavailable)

	d, err := s.Open("a", 1000)
	require.NoError(t, err)
	sz, _ := d.Size()
	assert.Equal(uint64(3), sz)
	assert.NoError(d.Write(2, mkBlock(7)))
	assert.NoError(d.Close())

	d, err = s.Open("a", 0)
	require.NoError(t, err)
	b, err := d.Read(2)
	assert.NoError(err)
	assert.Equal(mkBlock(7), b)
}
