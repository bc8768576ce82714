package addr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mit-pdos/go-tinyfs/common"
)

func TestPosAddr(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(Addr{0, 0}, MkPosAddr(0))
	assert.Equal(Addr{0, 29}, MkPosAddr(29))
	assert.Equal(Addr{0, common.DataSize - 1}, MkPosAddr(common.DataSize-1))
	assert.Equal(Addr{1, 0}, MkPosAddr(common.DataSize), "first byte of second extent")
	assert.Equal(Addr{2, 5}, MkPosAddr(2*common.DataSize+5))
	assert.Equal(uint64(3), MkPosAddr(2*common.DataSize+5).Hops())
}

func TestFlatid(t *testing.T) {
	for _, pos := range []uint64{0, 1, 251, 252, 253, 1000} {
		assert.Equal(t, pos, MkPosAddr(pos).Flatid())
	}
}
