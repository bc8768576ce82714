package util

import (
	"log"
	"os"
	"strconv"
)

// Debug is the highest DPrintf level that is printed. It starts out at the
// value of TINYFS_DEBUG, if set.
var Debug uint64 = 0

func init() {
	if s := os.Getenv("TINYFS_DEBUG"); s != "" {
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			Debug = n
		}
	}
}

func DPrintf(level uint64, format string, a ...interface{}) {
	if level <= Debug {
		log.Printf(format, a...)
	}
}

func RoundUp(n uint64, sz uint64) uint64 {
	return (n + sz - 1) / sz
}

func Min(n uint64, m uint64) uint64 {
	if n < m {
		return n
	} else {
		return m
	}
}

func CloneByteSlice(s []byte) []byte {
	s2 := make([]byte, len(s))
	copy(s2, s)
	return s2
}
