package sdram

// modeRegister computes the mode-register value programmed during
// initialization: burst length 1, sequential bursts, the configured CAS
// latency.
func modeRegister(p DeviceParams) uint32 {
	return uint32(p.CASLatency) << 4
}

// encodeCommand maps an abstract command to device pin levels.
//
// The byte mask is the complement of the write enables during a WRITE cycle,
// masks everything while initMasking is set, and is fully open otherwise so
// reads return all bytes. The data bus is driven only during the single
// cycle a WRITE is issued.
func (c *Comp) encodeCommand(cmd Command) DevicePins {
	pins := DevicePins{
		CKE:  true,
		CSn:  false,
		RASn: true,
		CASn: true,
		WEn:  true,
	}

	maskAll := uint8(1<<c.params.DataBytes - 1)

	switch cmd.Kind {
	case CmdKindNop:
	case CmdKindActivate:
		pins.RASn = false
		pins.Addr = cmd.Row
		pins.Bank = cmd.Bank
	case CmdKindPrecharge:
		pins.RASn = false
		pins.WEn = false
		pins.Bank = cmd.Bank
		if cmd.AllBanks {
			pins.Addr = prechargeAllBit
		}
	case CmdKindRead:
		pins.CASn = false
		pins.Addr = cmd.Col
		pins.Bank = cmd.Bank
	case CmdKindWrite:
		pins.CASn = false
		pins.WEn = false
		pins.Addr = cmd.Col
		pins.Bank = cmd.Bank
		pins.DQ = cmd.Data
		pins.DQEnable = true
	case CmdKindRefresh:
		pins.RASn = false
		pins.CASn = false
	case CmdKindSetMode:
		pins.RASn = false
		pins.CASn = false
		pins.WEn = false
		pins.Addr = cmd.Mode
	}

	switch {
	case c.state == stateInit || c.state == stateInitRefresh:
		pins.DQM = maskAll
	case cmd.Kind == CmdKindWrite:
		pins.DQM = ^cmd.ByteEnable & maskAll
	default:
		pins.DQM = 0
	}

	return pins
}
