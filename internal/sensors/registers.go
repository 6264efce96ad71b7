// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"strings"

	"periph.io/x/conn/v3/i2c"
)

// RegisterInfo describes one chip register for debug dumps.
type RegisterInfo struct {
	Address     byte
	Name        string
	Description string
	Access      string // "R" or "RW"
}

// regReader reads single registers and keeps the first error, so a burst of
// reads can be checked once at the end.
type regReader struct {
	dev *i2c.Dev
	err error
}

func (r *regReader) byte(reg byte) byte {
	if r.err != nil {
		return 0
	}
	var b [1]byte
	if err := r.dev.Tx([]byte{reg}, b[:]); err != nil {
		r.err = fmt.Errorf("read 0x%02x: %w", reg, err)
		return 0
	}
	return b[0]
}

// signed reads the registers most significant first and sign-extends the
// result to the combined width.
func (r *regReader) signed(regs ...byte) int32 {
	var v uint32
	for _, reg := range regs {
		v = v<<8 | uint32(r.byte(reg))
	}
	shift := 32 - 8*len(regs)
	return int32(v<<shift) >> shift
}

func writeReg(dev *i2c.Dev, reg, val byte) error {
	if _, err := dev.Write([]byte{reg, val}); err != nil {
		return fmt.Errorf("write 0x%02x: %w", reg, err)
	}
	return nil
}

// DumpRegisters reads every readable register in regs and formats one line
// per register.
func DumpRegisters(dev *i2c.Dev, regs []RegisterInfo) (string, error) {
	r := &regReader{dev: dev}
	var b strings.Builder
	for _, info := range regs {
		v := r.byte(info.Address)
		if r.err != nil {
			return b.String(), r.err
		}
		fmt.Fprintf(&b, "0x%02X %-14s %-2s 0x%02X  %s\n", info.Address, info.Name, info.Access, v, info.Description)
	}
	return b.String(), nil
}

// HTS221Registers lists the HTS221 control and calibration registers.
func HTS221Registers() []RegisterInfo {
	return []RegisterInfo{
		{Address: 0x0F, Name: "WHO_AM_I", Description: "Device identification (0xBC)", Access: "R"},
		{Address: 0x10, Name: "AV_CONF", Description: "Humidity and temperature resolution", Access: "RW"},
		{Address: 0x20, Name: "CTRL_REG1", Description: "Power down, block data update, output data rate", Access: "RW"},
		{Address: 0x27, Name: "STATUS_REG", Description: "Data available flags", Access: "R"},
		{Address: 0x30, Name: "H0_rH_x2", Description: "Humidity calibration point 0", Access: "R"},
		{Address: 0x31, Name: "H1_rH_x2", Description: "Humidity calibration point 1", Access: "R"},
		{Address: 0x32, Name: "T0_degC_x8", Description: "Temperature calibration point 0", Access: "R"},
		{Address: 0x33, Name: "T1_degC_x8", Description: "Temperature calibration point 1", Access: "R"},
		{Address: 0x35, Name: "T1/T0 msb", Description: "Temperature calibration high bits", Access: "R"},
	}
}

// LPS25HRegisters lists the LPS25H control registers.
func LPS25HRegisters() []RegisterInfo {
	return []RegisterInfo{
		{Address: 0x0F, Name: "WHO_AM_I", Description: "Device identification (0xBD)", Access: "R"},
		{Address: 0x10, Name: "RES_CONF", Description: "Pressure and temperature averaging", Access: "RW"},
		{Address: 0x20, Name: "CTRL_REG1", Description: "Power down, output data rate, block data update", Access: "RW"},
		{Address: 0x27, Name: "STATUS_REG", Description: "Data available flags", Access: "R"},
	}
}

// LTR559Registers lists the LTR559 control registers.
func LTR559Registers() []RegisterInfo {
	return []RegisterInfo{
		{Address: 0x80, Name: "ALS_CONTROL", Description: "ALS mode and gain", Access: "RW"},
		{Address: 0x81, Name: "PS_CONTROL", Description: "Proximity mode", Access: "RW"},
		{Address: 0x83, Name: "PS_N_PULSES", Description: "Proximity LED pulse count", Access: "RW"},
		{Address: 0x85, Name: "ALS_MEAS_RATE", Description: "ALS integration time and rate", Access: "RW"},
		{Address: 0x86, Name: "PART_ID", Description: "Part and revision (0x92)", Access: "R"},
		{Address: 0x8C, Name: "ALS_PS_STATUS", Description: "Data status", Access: "R"},
	}
}
