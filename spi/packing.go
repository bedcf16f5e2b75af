package spi

import "fmt"

// Lane packing convention, used identically by RPO, RPI and SER:
//
// A chunk slice of n bits (n a multiple of the radix r) is transferred in
// n/r serial steps. Step 0 is first on the wire. For MSB-first transfers
// step 0 carries the most significant r bits of the slice; for LSB-first
// the least significant. Within one step, bit k of the group drives line
// IOk, so the highest-numbered active line carries the most significant bit
// of the group.
//
// The packed chunk payload keeps one byte-wide lane per IO line: the bit of
// step s on line L is stored at bit 8*L+s of the packed word.

// Group returns the r-bit group of the given step of an n-bit slice.
func Group(slice uint32, n, step int, mode IOMode, dir ShiftDir) uint32 {
	r := mode.Radix()
	groupMustExist(n, step, r)

	if dir == LSBFirst {
		return (slice >> (r * step)) & mask(r)
	}

	return (slice >> (n - r*(step+1))) & mask(r)
}

// PlaceGroup merges an r-bit group back into its position in an n-bit slice.
func PlaceGroup(slice uint32, group uint32, n, step int,
	mode IOMode, dir ShiftDir,
) uint32 {
	r := mode.Radix()
	groupMustExist(n, step, r)

	if dir == LSBFirst {
		return slice | (group&mask(r))<<(r*step)
	}

	return slice | (group&mask(r))<<(n-r*(step+1))
}

// PackChunk distributes an n-bit slice over the per-line lanes of a packed
// chunk payload.
func PackChunk(slice uint32, n int, mode IOMode, dir ShiftDir) uint32 {
	r := mode.Radix()

	var packed uint32

	for step := 0; step < n/r; step++ {
		group := Group(slice, n, step, mode, dir)
		for line := 0; line < r; line++ {
			bit := (group >> line) & 1
			packed |= bit << (ChunkBits*line + step)
		}
	}

	return packed
}

// UnpackChunk reassembles the n-bit slice from a packed chunk payload. It is
// the exact inverse of PackChunk.
func UnpackChunk(packed uint32, n int, mode IOMode, dir ShiftDir) uint32 {
	r := mode.Radix()

	var slice uint32

	for step := 0; step < n/r; step++ {
		var group uint32
		for line := 0; line < r; line++ {
			bit := (packed >> (ChunkBits*line + step)) & 1
			group |= bit << line
		}

		slice = PlaceGroup(slice, group, n, step, mode, dir)
	}

	return slice
}

func groupMustExist(n, step, r int) {
	if n%r != 0 {
		panic(fmt.Sprintf("slice of %d bits is not a multiple of radix %d",
			n, r))
	}

	if step < 0 || step >= n/r {
		panic(fmt.Sprintf("step %d out of range for %d-bit slice", step, n))
	}
}

func mask(n int) uint32 {
	if n >= 32 {
		return ^uint32(0)
	}

	return (1 << n) - 1
}
