package sdram

// CmdKind describes the type of command sent to the device.
type CmdKind int

// A list of all command kinds the controller can issue.
const (
	CmdKindNop CmdKind = iota
	CmdKindActivate
	CmdKindPrecharge
	CmdKindRead
	CmdKindWrite
	CmdKindRefresh
	CmdKindSetMode
)

func (k CmdKind) String() string {
	switch k {
	case CmdKindNop:
		return "NOP"
	case CmdKindActivate:
		return "ACTIVATE"
	case CmdKindPrecharge:
		return "PRECHARGE"
	case CmdKindRead:
		return "READ"
	case CmdKindWrite:
		return "WRITE"
	case CmdKindRefresh:
		return "REFRESH"
	case CmdKindSetMode:
		return "SET_MODE"
	default:
		return "UNKNOWN"
	}
}

// A Command is one abstract operation the controller issues to the device in
// a single cycle. It is translated to pin-level assertions by the encoder.
type Command struct {
	Kind CmdKind

	Bank uint8
	Row  uint32
	Col  uint32

	// AllBanks requests a precharge of every bank at once.
	AllBanks bool

	// Data and ByteEnable carry the write payload. Bit i of ByteEnable
	// guards byte i of Data.
	Data       uint64
	ByteEnable uint8

	// Mode carries the mode-register value for SET_MODE.
	Mode uint32
}

// HostIn is the bus-facing input sampled by the controller each cycle. The
// requester must hold all fields stable from the cycle it asserts Req until
// it observes Ack.
type HostIn struct {
	// Req requests a transfer.
	Req bool

	// Read selects the direction: true for read, false for write.
	Read bool

	// Addr is the cell address, composed as row, bank, column from MSB to
	// LSB.
	Addr uint32

	// WData and WStrb carry the write payload. Bit i of WStrb enables
	// byte i of WData.
	WData uint64
	WStrb uint8
}

// HostOut is the bus-facing output driven by the controller each cycle.
type HostOut struct {
	// Ack is asserted the cycle a request is accepted.
	Ack bool

	// Vld pulses for exactly one cycle when RData carries read data.
	Vld bool

	// RData is the read data, valid while Vld is asserted.
	RData uint64

	// Rdy is asserted once initialization completes and never de-asserted.
	Rdy bool
}

// DeviceIn carries the signals the device drives towards the controller.
type DeviceIn struct {
	// DQ is the data bus as driven by the device.
	DQ uint64
}

// DevicePins is the device-facing cycle output. Control lines are active
// low; the stored values are the electrical levels.
type DevicePins struct {
	CKE  bool
	CSn  bool
	RASn bool
	CASn bool
	WEn  bool

	// Addr multiplexes row address, column address and the mode-register
	// value. Bit 10 selects all-banks during a precharge.
	Addr uint32
	Bank uint8

	// DQ is the data bus as driven by the controller; it is only
	// meaningful while DQEnable is set.
	DQ       uint64
	DQEnable bool

	// DQM masks data bus bytes; a set bit suppresses the byte.
	DQM uint8
}

// prechargeAllBit is the address bit that turns a precharge into an
// all-banks precharge.
const prechargeAllBit = 1 << 10

// AddrFields splits a host address into its row, bank and column components.
func (p DeviceParams) AddrFields(addr uint32) (row uint32, bank uint8, col uint32) {
	col = addr & (1<<p.ColBits - 1)
	bank = uint8(addr >> p.ColBits & (1<<p.BankBits - 1))
	row = addr >> (p.ColBits + p.BankBits) & (1<<p.RowBits - 1)

	return
}

// LinearAddr converts row, bank and column back into a flat byte address.
func (p DeviceParams) LinearAddr(bank uint8, row, col uint32) uint64 {
	cell := uint64(row)<<(p.ColBits+p.BankBits) |
		uint64(bank)<<p.ColBits | uint64(col)

	return cell * uint64(p.DataBytes)
}
