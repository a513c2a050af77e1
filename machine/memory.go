package machine

import (
	"iter"
	"maps"
	"slices"

	"github.com/ezrec/intcode/internal"
)

const (
	SPARSE_GAP   = 1 << 16 // Writes further than this past the dense end are kept sparse.
	MEMORY_LIMIT = 1 << 40 // Default highest addressable cell.
)

// Memory is the tape of the machine. Unwritten cells read as zero.
type Memory struct {
	Limit int64 // Highest addressable cell + 1.

	data   []int64
	sparse map[int64]int64
}

// NewMemory creates a memory holding a copy of the program.
func NewMemory(program []int64) (mem *Memory) {
	mem = &Memory{
		Limit: MEMORY_LIMIT,
		data:  slices.Clone(program),
	}

	return
}

func (mem *Memory) check(addr int64) (err error) {
	if addr < 0 {
		err = ErrAddress
		return
	}

	if mem.Limit > 0 && addr >= mem.Limit {
		err = ErrMemoryLimit
		return
	}

	return
}

// Read the value at an address. Cells past the limit can never be
// written, so they read as zero.
func (mem *Memory) Read(addr int64) (value int64, err error) {
	if addr < 0 {
		err = ErrAddress
		return
	}

	if addr < int64(len(mem.data)) {
		value = mem.data[addr]
		return
	}

	value = mem.sparse[addr]
	return
}

// Write the value to an address, growing the memory as needed.
func (mem *Memory) Write(addr int64, value int64) (err error) {
	err = mem.check(addr)
	if err != nil {
		return
	}

	size := int64(len(mem.data))
	switch {
	case addr < size:
		mem.data[addr] = value
	case addr-size < SPARSE_GAP:
		mem.grow(addr + 1)
		mem.data[addr] = value
	default:
		if mem.sparse == nil {
			mem.sparse = map[int64]int64{}
		}
		mem.sparse[addr] = value
	}

	return
}

// grow extends the dense region to size, folding in any sparse cells it covers.
func (mem *Memory) grow(size int64) {
	mem.data = append(mem.data, make([]int64, size-int64(len(mem.data)))...)

	for addr, value := range mem.sparse {
		if addr < size {
			mem.data[addr] = value
			delete(mem.sparse, addr)
		}
	}
}

// Len returns one past the highest stored address.
func (mem *Memory) Len() (size int64) {
	size = int64(len(mem.data))
	for addr := range maps.Keys(mem.sparse) {
		if addr >= size {
			size = addr + 1
		}
	}

	return
}

// Slice returns a copy of the cells in [from, to).
func (mem *Memory) Slice(from, to int64) (cells []int64) {
	if from < 0 {
		from = 0
	}
	if to <= from {
		return
	}

	cells = make([]int64, to-from)
	for n := range cells {
		cells[n], _ = mem.Read(from + int64(n))
	}

	return
}

// Clone returns an independent copy of the memory.
func (mem *Memory) Clone() *Memory {
	return &Memory{
		Limit:  mem.Limit,
		data:   slices.Clone(mem.data),
		sparse: maps.Clone(mem.sparse),
	}
}

// Cells iterates over every non-zero cell, in address order.
func (mem *Memory) Cells() iter.Seq2[int64, int64] {
	dense := func(yield func(addr int64, value int64) bool) {
		for n, value := range mem.data {
			if value != 0 && !yield(int64(n), value) {
				return
			}
		}
	}

	sparse := func(yield func(addr int64, value int64) bool) {
		for _, addr := range slices.Sorted(maps.Keys(mem.sparse)) {
			value := mem.sparse[addr]
			if value != 0 && !yield(addr, value) {
				return
			}
		}
	}

	return internal.Concat2(dense, sparse)
}
