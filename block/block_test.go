package block

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-tinyfs/common"
)

func TestHeaderLayout(t *testing.T) {
	assert := assert.New(t)
	raw := Encode(&Free{Next: 7})
	assert.Len(raw, int(common.BlockSize))
	assert.Equal([]byte{byte(TypeFree), common.Magic, 7, 0}, raw[:4])
	for _, b := range raw[4:] {
		assert.Equal(byte(0), b, "free block payload should be zero-filled")
	}

	raw = Encode(&Extent{})
	assert.Equal([]byte{byte(TypeExtent), common.Magic, 0, 0}, raw[:4],
		"no link should encode as 0")
}

func TestInodeLayout(t *testing.T) {
	assert := assert.New(t)
	ino := &Inode{Next: 3, Name: "afile", Size: 30,
		Created: 1700000000, Modified: 1700000001, Accessed: 1700000002}
	raw := Encode(ino)

	assert.Equal(byte(3), raw[2])
	assert.Equal("afile\x00", string(raw[4:10]))
	assert.Equal("30\x00", string(raw[13:16]))
	assert.Equal("1700000000\x00", string(raw[25:36]))
	assert.Equal("1700000001\x00", string(raw[46:57]))
	assert.Equal("1700000002\x00", string(raw[67:78]))

	b, err := DecodeInode(raw)
	require.NoError(t, err)
	assert.Equal(ino, b)
}

func TestSuperAndExtent(t *testing.T) {
	assert := assert.New(t)
	sb := &Super{FreeHead: 1, NumBlocks: 40, VolumeID: uuid.New()}
	got, err := DecodeSuper(Encode(sb))
	require.NoError(t, err)
	assert.Equal(sb, got)

	e := &Extent{Next: 39}
	copy(e.Data[:], strings.Repeat("x", int(common.DataSize)))
	ge, err := DecodeExtent(Encode(e))
	require.NoError(t, err)
	assert.Equal(e, ge)
}

func TestDecodeErrors(t *testing.T) {
	assert := assert.New(t)

	raw := Encode(&Free{})
	raw[1] = 0
	_, err := Decode(raw)
	assert.ErrorIs(err, common.ErrFormat, "bad magic")

	raw = Encode(&Free{})
	raw[0] = 9
	_, err = Decode(raw)
	assert.ErrorIs(err, common.ErrFormat, "unknown type")

	raw = Encode(&Free{})
	raw[3] = 1
	_, err = Decode(raw)
	assert.ErrorIs(err, common.ErrFormat, "reserved byte")

	raw = Encode(&Inode{Name: "f"})
	copy(raw[13:], "x1\x00")
	_, err = Decode(raw)
	assert.ErrorIs(err, common.ErrFormat, "non-numeric size")

	_, err = DecodeInode(Encode(&Free{}))
	assert.ErrorIs(err, common.ErrFormat, "type mismatch")
	_, err = DecodeExtent(Encode(&Inode{Name: "f"}))
	assert.ErrorIs(err, common.ErrFormat)
	_, err = DecodeSuper(Encode(&Free{}))
	assert.ErrorIs(err, common.ErrFormat)
}

func TestEncodeBadLink(t *testing.T) {
	assert.Panics(t, func() { Encode(&Free{Next: common.MaxBlocks}) })
}

func TestValidName(t *testing.T) {
	assert := assert.New(t)
	assert.NoError(ValidName("afile"))
	assert.NoError(ValidName("12345678"))
	assert.ErrorIs(ValidName("123456789"), common.ErrNameTooLong)
	assert.ErrorIs(ValidName(""), common.ErrBadName)
	assert.ErrorIs(ValidName("a\x00b"), common.ErrBadName)
}
