package slave

import (
	"github.com/sockitsim/spisim/spi"
	"github.com/sockitsim/spisim/spi/ser"
)

// OpFastRead is the only opcode the flash model understands. The real part
// inserts dummy cycles after the address; the model answers immediately.
const OpFastRead = 0x0b

// Flash models a read-only SPI flash. It samples one command bit per rising
// clock edge on IO0 until it has the 8-bit opcode and 24-bit address, then
// streams memory content back in the configured read mode, updating its
// outputs on falling edges. The model assumes clock mode 0.
type Flash struct {
	mem      []byte
	readMode spi.IOMode

	prevSCK  bool
	selected bool

	shiftIn uint32
	bitCnt  int

	reading bool
	addr    uint32
	outByte byte
	outBits int
	drive   [spi.NumLines]bool
	driven  bool
}

// NewFlash creates a flash holding the given memory image. Data read back is
// driven in readMode, MSB first.
func NewFlash(mem []byte, readMode spi.IOMode) *Flash {
	return &Flash{
		mem:      mem,
		readMode: readMode,
	}
}

// Step reacts to one line-state update and returns the levels the flash
// drives back to the master.
func (f *Flash) Step(ls ser.LineState) [spi.NumLines]bool {
	selected := ls.CS != 0
	rising := selected && ls.SCK && !f.prevSCK
	falling := selected && !ls.SCK && f.prevSCK
	f.prevSCK = ls.SCK

	if !selected {
		if f.selected {
			f.reset()
		}

		return [spi.NumLines]bool{}
	}

	f.selected = true

	switch {
	case rising && !f.reading:
		f.shiftCommandBit(ls)
	case falling && f.reading:
		f.loadGroup()
	}

	if f.driven {
		return f.drive
	}

	return [spi.NumLines]bool{}
}

func (f *Flash) reset() {
	f.selected = false
	f.shiftIn = 0
	f.bitCnt = 0
	f.reading = false
	f.outBits = 0
	f.driven = false
	f.drive = [spi.NumLines]bool{}
}

func (f *Flash) shiftCommandBit(ls ser.LineState) {
	var bit uint32
	if ls.IO[0].OutEn && ls.IO[0].Out {
		bit = 1
	}

	f.shiftIn = f.shiftIn<<1 | bit
	f.bitCnt++

	if f.bitCnt < 32 {
		return
	}

	if f.shiftIn>>24 == OpFastRead {
		f.reading = true
		f.addr = f.shiftIn & 0x00ffffff
	}
}

// loadGroup puts the next radix bits of memory, MSB first, onto the lines
// that carry read data in the configured mode.
func (f *Flash) loadGroup() {
	r := f.readMode.Radix()

	var group uint32

	for k := r - 1; k >= 0; k-- {
		if f.outBits == 0 {
			f.outByte = f.nextByte()
			f.outBits = 8
		}

		if f.outByte&0x80 != 0 {
			group |= 1 << k
		}

		f.outByte <<= 1
		f.outBits--
	}

	f.drive = [spi.NumLines]bool{}

	switch f.readMode {
	case spi.Single:
		f.drive[1] = group&1 != 0
	default:
		for line := 0; line < r; line++ {
			f.drive[line] = group>>line&1 != 0
		}
	}

	f.driven = true
}

func (f *Flash) nextByte() byte {
	if int(f.addr) >= len(f.mem) {
		f.addr++
		return 0xff
	}

	b := f.mem[f.addr]
	f.addr++

	return b
}
