package spi

// Register map of the memory-mapped front-end, one 32-bit register per
// native word address.
const (
	RegDat = 0 // read/write data
	RegCtl = 1 // control/status
	RegCfg = 2 // SPI configuration
	RegXip = 3 // execute-in-place configuration (storage only)
)

// Control register layout. Writing the register with CtlRun set issues one
// command; the busy bits read back the state of the datapath.
const (
	CtlLenMask  = 0x0000001f // transfer length - 1
	CtlLenShift = 0

	CtlLast = 1 << 5 // release chip selects after this command
	CtlPack = 1 << 6 // remainder-first packeting

	CtlModeMask  = 0x00000300 // io mode
	CtlModeShift = 8

	CtlOutputEn = 1 << 10
	CtlInputEn  = 1 << 11
	CtlClockEn  = 1 << 12
	CtlRun      = 1 << 13

	// Read-only status bits. Front-ends poll until both clear.
	CtlBusy   = 1 << 14 // command or chunk still in flight
	CtlRxPend = 1 << 15 // input reassembly still in progress
)

// CtlBusyMask covers both status bits.
const CtlBusyMask = CtlBusy | CtlRxPend

// Chip-select field of the control register.
const (
	CtlSelMask  = 0x00ff0000
	CtlSelShift = 16
)

// Configuration register layout.
const (
	CfgPol = 1 << 0 // clock polarity
	CfgPha = 1 << 1 // clock phase
	CfgLsb = 1 << 2 // lsb-first shifting
)

// EncodeCtl packs a command into a control-register write value.
func EncodeCtl(cmd Command, pack PackMode, run bool) uint32 {
	v := uint32(cmd.Length-1) << CtlLenShift
	v |= uint32(cmd.Mode) << CtlModeShift
	v |= uint32(cmd.SelectMask) << CtlSelShift

	if cmd.Last {
		v |= CtlLast
	}

	if pack == RemainderFirst {
		v |= CtlPack
	}

	if cmd.OutputEn {
		v |= CtlOutputEn
	}

	if cmd.InputEn {
		v |= CtlInputEn
	}

	if cmd.ClockEn {
		v |= CtlClockEn
	}

	if run {
		v |= CtlRun
	}

	return v
}

// DecodeCtl unpacks a control-register value into a command and a packeting
// mode. The data field is supplied separately from the DAT register.
func DecodeCtl(v uint32, data uint32) (Command, PackMode) {
	cmd := Command{
		Data:       data,
		Length:     int(v&CtlLenMask>>CtlLenShift) + 1,
		Mode:       IOMode(v & CtlModeMask >> CtlModeShift),
		OutputEn:   v&CtlOutputEn != 0,
		InputEn:    v&CtlInputEn != 0,
		ClockEn:    v&CtlClockEn != 0,
		SelectMask: uint8(v & CtlSelMask >> CtlSelShift),
		Last:       v&CtlLast != 0,
	}

	pack := RemainderLast
	if v&CtlPack != 0 {
		pack = RemainderFirst
	}

	return cmd, pack
}

// DecodeCfg unpacks a configuration-register value.
func DecodeCfg(v uint32) (ClockMode, ShiftDir) {
	mode := Mode0

	switch {
	case v&CfgPol != 0 && v&CfgPha != 0:
		mode = Mode3
	case v&CfgPol != 0:
		mode = Mode2
	case v&CfgPha != 0:
		mode = Mode1
	}

	dir := MSBFirst
	if v&CfgLsb != 0 {
		dir = LSBFirst
	}

	return mode, dir
}

// EncodeCfg packs a clock mode and shift direction into a configuration
// value.
func EncodeCfg(mode ClockMode, dir ShiftDir) uint32 {
	var v uint32

	if mode.Pol() {
		v |= CfgPol
	}

	if mode.Pha() {
		v |= CfgPha
	}

	if dir == LSBFirst {
		v |= CfgLsb
	}

	return v
}
