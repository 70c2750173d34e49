// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lis3mdl

// Register map of the LIS3MDL. Addresses 0x10..0x1F and anything outside
// the ranges below are reserved and must not be touched.
const (
	regWhoAmI uint8 = 0x0F // Device identification, reads 0x3D

	// Control registers
	regCtrl1 uint8 = 0x20 // TEMP_EN, OM[1:0], DO[2:0], FAST_ODR, ST
	regCtrl2 uint8 = 0x21 // FS[1:0], REBOOT, SOFT_RST
	regCtrl3 uint8 = 0x22 // LP, SIM, MD[1:0]
	regCtrl4 uint8 = 0x23 // OMZ[1:0], BLE
	regCtrl5 uint8 = 0x24 // FAST_READ, BDU

	regStatus uint8 = 0x27 // Overrun and data-available flags

	// Output registers, low byte first. The device increments the
	// sub-address automatically so all six can be read in one transaction.
	regOutXL uint8 = 0x28
	regOutXH uint8 = 0x29
	regOutYL uint8 = 0x2A
	regOutYH uint8 = 0x2B
	regOutZL uint8 = 0x2C
	regOutZH uint8 = 0x2D

	regTempL uint8 = 0x2E // Temperature, 8 LSB/°C, 0 at 25°C
	regTempH uint8 = 0x2F

	// Interrupt configuration
	regIntCfg  uint8 = 0x30
	regIntSrc  uint8 = 0x31
	regIntThsL uint8 = 0x32
	regIntThsH uint8 = 0x33
)

const chipID = 0x3D

// CTRL_REG1 fields. The data rate selection spans FAST_ODR, DO[2:0] and
// OM[1:0], six bits starting at bit 1. The DataRate constants encode the
// whole field.
const (
	tempEnableBit  uint8 = 1 << 7
	dataRateMask   uint8 = 0x3F << dataRateShift
	dataRateShift        = 1
	selfTestBit    uint8 = 1 << 0
)

// CTRL_REG2 fields.
const (
	rangeMask    uint8 = 0x03 << rangeShift
	rangeShift         = 5
	rebootBit    uint8 = 1 << 3
	softResetBit uint8 = 1 << 2
)

// CTRL_REG3 fields.
const (
	lowPowerBit   uint8 = 1 << 5
	spiModeBit    uint8 = 1 << 2
	operationMask uint8 = 0x03
)

// CTRL_REG4 fields. OMZ selects the Z axis operative mode and should
// match the X/Y mode encoded in the data rate for rates above 80 Hz.
const (
	zOperativeMask  uint8 = 0x03 << zOperativeShift
	zOperativeShift       = 2
	bigEndianBit    uint8 = 1 << 1
)

// readableRegister reports whether reg can be read from the device.
func readableRegister(reg uint8) bool {
	switch {
	case reg == regWhoAmI:
		return true
	case reg >= regCtrl1 && reg <= regCtrl5:
		return true
	case reg >= regStatus && reg <= regIntThsH:
		return true
	}
	return false
}

// writableRegister reports whether reg accepts writes. Output, status and
// identification registers are read-only.
func writableRegister(reg uint8) bool {
	switch {
	case reg >= regCtrl1 && reg <= regCtrl5:
		return true
	case reg == regIntCfg, reg == regIntThsL, reg == regIntThsH:
		return true
	}
	return false
}
