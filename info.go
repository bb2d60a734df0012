package memocache

import "fmt"

// SizeUnknown is reported as CurrSize when the backend cannot count its
// entries.
const SizeUnknown = -1

// Info mirrors the bookkeeping of functools-style caches: process-local
// hit/miss counters plus the store-derived entry count.
type Info struct {
	Hits     uint64
	Misses   uint64
	CurrSize int
	MaxSize  int
}

func (i Info) String() string {
	size := "unknown"
	if i.CurrSize != SizeUnknown {
		size = fmt.Sprintf("%d", i.CurrSize)
	}
	return fmt.Sprintf("Info(hits=%d, misses=%d, currsize=%s, maxsize=%d)",
		i.Hits, i.Misses, size, i.MaxSize)
}
