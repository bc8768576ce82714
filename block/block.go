// Package block encodes and decodes the four kinds of blocks on a tinyfs
// volume. Every block starts with the same 4-byte header:
//
//	byte 0  type (super, inode, extent, free)
//	byte 1  magic (0x44)
//	byte 2  link: next block in this block's chain, 0 for none
//	byte 3  reserved, zero
//
// The payload that follows depends on the type. Inode fields are fixed-width,
// NUL-terminated ASCII so that a volume can be inspected with a hex dump.
package block

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-tinyfs/common"
	"github.com/mit-pdos/go-tinyfs/disk"
)

type Type byte

const (
	TypeSuper  Type = 1
	TypeInode  Type = 2
	TypeExtent Type = 3
	TypeFree   Type = 4
)

func (t Type) String() string {
	switch t {
	case TypeSuper:
		return "super"
	case TypeInode:
		return "inode"
	case TypeExtent:
		return "extent"
	case TypeFree:
		return "free"
	}
	return fmt.Sprintf("type(%d)", byte(t))
}

// Inode payload field widths, in bytes, each including the NUL terminator.
const (
	NameLen = common.MaxNameLen + 1
	SizeLen = 12
	TimeLen = 21
)

// Block is one decoded block. The concrete type is one of *Super, *Inode,
// *Extent or *Free.
type Block interface {
	Type() Type
	Link() common.Bnum
	SetLink(common.Bnum)
}

// Super is block 0. Its link is the head of the free chain.
type Super struct {
	FreeHead  common.Bnum
	NumBlocks uint64
	VolumeID  uuid.UUID
}

type Inode struct {
	Next     common.Bnum // first extent
	Name     string
	Size     uint64
	Created  int64
	Modified int64
	Accessed int64
}

type Extent struct {
	Next common.Bnum
	Data [common.DataSize]byte
}

type Free struct {
	Next common.Bnum
}

func (b *Super) Type() Type              { return TypeSuper }
func (b *Super) Link() common.Bnum       { return b.FreeHead }
func (b *Super) SetLink(bn common.Bnum)  { b.FreeHead = bn }
func (b *Inode) Type() Type              { return TypeInode }
func (b *Inode) Link() common.Bnum       { return b.Next }
func (b *Inode) SetLink(bn common.Bnum)  { b.Next = bn }
func (b *Extent) Type() Type             { return TypeExtent }
func (b *Extent) Link() common.Bnum      { return b.Next }
func (b *Extent) SetLink(bn common.Bnum) { b.Next = bn }
func (b *Free) Type() Type               { return TypeFree }
func (b *Free) Link() common.Bnum        { return b.Next }
func (b *Free) SetLink(bn common.Bnum)   { b.Next = bn }

// ValidName checks that name fits the inode name field.
func ValidName(name string) error {
	if len(name) > common.MaxNameLen {
		return fmt.Errorf("%q: %w", name, common.ErrNameTooLong)
	}
	if name == "" || bytes.IndexByte([]byte(name), 0) >= 0 {
		return fmt.Errorf("%q: %w", name, common.ErrBadName)
	}
	return nil
}

func field(s string, width uint64) []byte {
	f := make([]byte, width)
	copy(f[:width-1], s)
	return f
}

func intField(n int64, width uint64) []byte {
	return field(strconv.FormatInt(n, 10), width)
}

func cstring(f []byte) (string, bool) {
	i := bytes.IndexByte(f, 0)
	if i < 0 {
		return "", false
	}
	return string(f[:i]), true
}

func parseField(f []byte, what string) (int64, error) {
	s, ok := cstring(f)
	if !ok {
		return 0, fmt.Errorf("%w: unterminated %s field", common.ErrFormat, what)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: bad %s field %q", common.ErrFormat, what, s)
	}
	return n, nil
}

// Encode serializes b into a fresh zero-filled disk block.
func Encode(b Block) disk.Block {
	link := b.Link()
	if link >= common.MaxBlocks {
		panic(fmt.Errorf("link %d does not fit in a block header", link))
	}
	enc := marshal.NewEnc(common.BlockSize)
	enc.PutBytes([]byte{byte(b.Type()), common.Magic, byte(link), 0})
	switch b := b.(type) {
	case *Super:
		enc.PutInt(b.NumBlocks)
		enc.PutBytes(b.VolumeID[:])
	case *Inode:
		enc.PutBytes(field(b.Name, NameLen))
		enc.PutBytes(intField(int64(b.Size), SizeLen))
		enc.PutBytes(intField(b.Created, TimeLen))
		enc.PutBytes(intField(b.Modified, TimeLen))
		enc.PutBytes(intField(b.Accessed, TimeLen))
	case *Extent:
		enc.PutBytes(b.Data[:])
	case *Free:
	}
	return enc.Finish()
}

// Decode parses a disk block. A bad magic number, a non-zero reserved byte,
// an unknown type, or a malformed inode field is an ErrFormat.
func Decode(data disk.Block) (Block, error) {
	if uint64(len(data)) != common.BlockSize {
		panic("buffer is not block-sized")
	}
	dec := marshal.NewDec(data)
	hdr := dec.GetBytes(common.HDRSIZE)
	if hdr[1] != common.Magic {
		return nil, fmt.Errorf("%w: magic 0x%02x", common.ErrFormat, hdr[1])
	}
	if hdr[3] != 0 {
		return nil, fmt.Errorf("%w: reserved byte 0x%02x", common.ErrFormat, hdr[3])
	}
	link := common.Bnum(hdr[2])
	switch Type(hdr[0]) {
	case TypeSuper:
		b := &Super{FreeHead: link}
		b.NumBlocks = dec.GetInt()
		copy(b.VolumeID[:], dec.GetBytes(uint64(len(b.VolumeID))))
		return b, nil
	case TypeInode:
		var f [5][]byte
		f[0] = dec.GetBytes(NameLen)
		f[1] = dec.GetBytes(SizeLen)
		for i := 2; i < len(f); i++ {
			f[i] = dec.GetBytes(TimeLen)
		}
		return decodeInode(f, link)
	case TypeExtent:
		b := &Extent{Next: link}
		copy(b.Data[:], dec.GetBytes(common.DataSize))
		return b, nil
	case TypeFree:
		return &Free{Next: link}, nil
	}
	return nil, fmt.Errorf("%w: unknown block type %d", common.ErrFormat, hdr[0])
}

func decodeInode(f [5][]byte, link common.Bnum) (*Inode, error) {
	b := &Inode{Next: link}
	name, ok := cstring(f[0])
	if !ok {
		return nil, fmt.Errorf("%w: unterminated name field", common.ErrFormat)
	}
	b.Name = name
	size, err := parseField(f[1], "size")
	if err != nil {
		return nil, err
	}
	b.Size = uint64(size)
	if b.Created, err = parseField(f[2], "created"); err != nil {
		return nil, err
	}
	if b.Modified, err = parseField(f[3], "modified"); err != nil {
		return nil, err
	}
	if b.Accessed, err = parseField(f[4], "accessed"); err != nil {
		return nil, err
	}
	return b, nil
}

func wrongType(want Type, got Block) error {
	return fmt.Errorf("%w: expected %v block, found %v", common.ErrFormat, want, got.Type())
}

func DecodeSuper(data disk.Block) (*Super, error) {
	b, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sb, ok := b.(*Super)
	if !ok {
		return nil, wrongType(TypeSuper, b)
	}
	return sb, nil
}

func DecodeInode(data disk.Block) (*Inode, error) {
	b, err := Decode(data)
	if err != nil {
		return nil, err
	}
	ib, ok := b.(*Inode)
	if !ok {
		return nil, wrongType(TypeInode, b)
	}
	return ib, nil
}

func DecodeExtent(data disk.Block) (*Extent, error) {
	b, err := Decode(data)
	if err != nil {
		return nil, err
	}
	eb, ok := b.(*Extent)
	if !ok {
		return nil, wrongType(TypeExtent, b)
	}
	return eb, nil
}
