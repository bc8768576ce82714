package common

const (
	// BlockSize is the size of every block on a tinyfs volume, in bytes.
	BlockSize uint64 = 256

	// HDRSIZE is the size of the block header: type, magic, link, reserved.
	HDRSIZE uint64 = 4

	// DataSize is the number of file bytes held by one extent block.
	DataSize = BlockSize - HDRSIZE

	Magic byte = 0x44

	MaxNameLen = 8

	// A link is a single byte, so a volume can address at most 256 blocks.
	MaxBlocks uint64 = 256
	MinBlocks uint64 = 2

	DefaultDiskSize uint64 = 10240
	DefaultDiskName        = "tinyFSDisk"
)

type Bnum = uint64

const (
	SUPERBNUM Bnum = 0
	NULLBNUM  Bnum = 0
)
