package disk

import (
	"fmt"
	"sync"

	"github.com/mit-pdos/go-tinyfs/common"
)

// Store is a set of named memory disks. Its Open method is an Opener, so a
// volume can be formatted, unmounted and mounted again without touching the
// host file system.
type Store struct {
	mu    sync.Mutex
	disks map[string]*memDisk
}

func NewStore() *Store {
	return &Store{disks: make(map[string]*memDisk)}
}

func (s *Store) Open(path string, nBytes uint64) (Disk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if nBytes == 0 {
		d, ok := s.disks[path]
		if !ok {
			return nil, fmt.Errorf("%w: no disk named %s", common.ErrDeviceUnavailable, path)
		}
		return d, nil
	}
	numBlocks := NumBlocks(nBytes)
	if numBlocks == 0 {
		return nil, fmt.Errorf("%w: size %d is smaller than one block",
			common.ErrDeviceUnavailable, nBytes)
	}
	d := NewMemDisk(numBlocks)
	s.disks[path] = d
	return d, nil
}
