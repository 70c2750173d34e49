// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lis3mdl

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

const (
	// DefaultAddress is the I²C address with the SDO/SA1 pin tied low.
	DefaultAddress uint16 = 0x1C
	// AltAddress is the I²C address with the SDO/SA1 pin tied high.
	AltAddress uint16 = 0x1E
)

// DataRate selects the output data rate. The value encodes the FAST_ODR,
// DO[2:0] and OM[1:0] bits of CTRL_REG1 as a single six bit field. Rates
// above 80 Hz use FAST_ODR and trade axis averaging for speed.
type DataRate uint8

const (
	Rate0Hz625 DataRate = 0b000000
	Rate1Hz25  DataRate = 0b000010
	Rate2Hz5   DataRate = 0b000100
	Rate5Hz    DataRate = 0b000110
	Rate10Hz   DataRate = 0b001000
	Rate20Hz   DataRate = 0b001010
	Rate40Hz   DataRate = 0b001100
	Rate80Hz   DataRate = 0b001110
	Rate155Hz  DataRate = 0b000001
	Rate300Hz  DataRate = 0b010001
	Rate560Hz  DataRate = 0b100001
	Rate1000Hz DataRate = 0b110001
)

var dataRateFrequencies = map[DataRate]physic.Frequency{
	Rate0Hz625: 625 * physic.MilliHertz,
	Rate1Hz25:  1250 * physic.MilliHertz,
	Rate2Hz5:   2500 * physic.MilliHertz,
	Rate5Hz:    5 * physic.Hertz,
	Rate10Hz:   10 * physic.Hertz,
	Rate20Hz:   20 * physic.Hertz,
	Rate40Hz:   40 * physic.Hertz,
	Rate80Hz:   80 * physic.Hertz,
	Rate155Hz:  155 * physic.Hertz,
	Rate300Hz:  300 * physic.Hertz,
	Rate560Hz:  560 * physic.Hertz,
	Rate1000Hz: 1000 * physic.Hertz,
}

// Frequency returns the output data rate as a physic.Frequency, or 0 for
// a register value that does not match a defined rate.
func (r DataRate) Frequency() physic.Frequency {
	return dataRateFrequencies[r]
}

func (r DataRate) valid() bool {
	_, ok := dataRateFrequencies[r]
	return ok
}

func (r DataRate) String() string {
	if f, ok := dataRateFrequencies[r]; ok {
		return f.String()
	}
	return fmt.Sprintf("DataRate(%#08b)", uint8(r))
}

// Range selects the full scale measurement range, FS[1:0] of CTRL_REG2.
type Range uint8

const (
	Range4Gauss  Range = 0b00
	Range8Gauss  Range = 0b01
	Range12Gauss Range = 0b10
	Range16Gauss Range = 0b11
)

// Sensitivity of each range in LSB per gauss, from the datasheet.
var rangeSensitivities = [4]int32{6842, 3421, 2281, 1711}

func (r Range) valid() bool {
	return r <= Range16Gauss
}

// sensitivity returns the LSB per gauss factor for the range.
func (r Range) sensitivity() int32 {
	return rangeSensitivities[r&0x03]
}

func (r Range) String() string {
	switch r {
	case Range4Gauss:
		return "±4 gauss"
	case Range8Gauss:
		return "±8 gauss"
	case Range12Gauss:
		return "±12 gauss"
	case Range16Gauss:
		return "±16 gauss"
	}
	return fmt.Sprintf("Range(%d)", uint8(r))
}

// PowerMode selects the LP bit of CTRL_REG3. In low power mode the
// device forces the data rate to 0.625 Hz and performs the minimum
// number of averages per channel.
type PowerMode uint8

const (
	PowerNormal PowerMode = 0
	PowerLow    PowerMode = 1
)

func (m PowerMode) valid() bool {
	return m <= PowerLow
}

func (m PowerMode) String() string {
	switch m {
	case PowerNormal:
		return "normal"
	case PowerLow:
		return "low power"
	}
	return fmt.Sprintf("PowerMode(%d)", uint8(m))
}

// OperationMode selects the system operating mode, MD[1:0] of CTRL_REG3.
type OperationMode uint8

const (
	// ModeContinuous continuously acquires measurements.
	ModeContinuous OperationMode = 0b00
	// ModeSingleShot performs one measurement then returns to power down.
	// Only valid for data rates up to 80 Hz.
	ModeSingleShot OperationMode = 0b01
	// ModePowerDown turns the measurement engine off.
	ModePowerDown OperationMode = 0b10
)

func (m OperationMode) valid() bool {
	return m <= ModePowerDown
}

func (m OperationMode) String() string {
	switch m {
	case ModeContinuous:
		return "continuous"
	case ModeSingleShot:
		return "single shot"
	case ModePowerDown:
		return "power down"
	}
	return fmt.Sprintf("OperationMode(%d)", uint8(m))
}

// MagneticFluxDensity is a measurement of magnetic flux density stored as
// an int64 nanotesla count. The physic package has no magnetic unit so
// the type is declared here following the same storage convention.
type MagneticFluxDensity int64

const (
	NanoTesla  MagneticFluxDensity = 1
	MicroTesla MagneticFluxDensity = 1000 * NanoTesla
	MilliTesla MagneticFluxDensity = 1000 * MicroTesla
	Tesla      MagneticFluxDensity = 1000 * MilliTesla
	Gauss      MagneticFluxDensity = 100 * MicroTesla
)

func (f MagneticFluxDensity) String() string {
	return fmt.Sprintf("%.3fµT", float64(f)/float64(MicroTesla))
}

// Status holds the STATUS_REG flags.
type Status uint8

const (
	StatusXYZOverrun   Status = 1 << 7
	StatusZOverrun     Status = 1 << 6
	StatusYOverrun     Status = 1 << 5
	StatusXOverrun     Status = 1 << 4
	StatusXYZAvailable Status = 1 << 3
	StatusZAvailable   Status = 1 << 2
	StatusYAvailable   Status = 1 << 1
	StatusXAvailable   Status = 1 << 0
)

// DataAvailable reports whether a new measurement is ready on all three
// axes.
func (s Status) DataAvailable() bool {
	return s&StatusXYZAvailable != 0
}

// Sample is a single three axis measurement. X, Y and Z hold the scaled
// field strength, RawX, RawY and RawZ the signed counts they were derived
// from.
type Sample struct {
	X, Y, Z          MagneticFluxDensity
	RawX, RawY, RawZ int16
}

// Heading returns the tilt uncompensated compass heading in the XY plane,
// in the range [0, 2π).
func (s *Sample) Heading() physic.Angle {
	h := math.Atan2(float64(s.Y), float64(s.X))
	if h < 0 {
		h += 2 * math.Pi
	}
	return physic.Angle(h * float64(physic.Radian))
}

func (s Sample) String() string {
	return fmt.Sprintf("X:%s Y:%s Z:%s", s.X, s.Y, s.Z)
}

// WrongChipError is returned by NewI2C when the device identification
// register does not read back as an LIS3MDL.
type WrongChipError struct {
	ID byte
}

func (e *WrongChipError) Error() string {
	return fmt.Sprintf("lis3mdl: unexpected device ID %#02x, want %#02x", e.ID, chipID)
}

var (
	errInvalidRegister      = errors.New("lis3mdl: invalid register address")
	errReadOnlyRegister     = errors.New("lis3mdl: register is read-only")
	errInvalidDataRate      = errors.New("lis3mdl: invalid data rate setting")
	errInvalidRange         = errors.New("lis3mdl: invalid scale range setting")
	errInvalidPowerMode     = errors.New("lis3mdl: invalid power mode setting")
	errInvalidOperationMode = errors.New("lis3mdl: invalid operation mode setting")
	errTemperatureDisabled  = errors.New("lis3mdl: temperature sensor is disabled")
	errAlreadySensing       = errors.New("lis3mdl: SenseContinuous already running")
)

// Opts holds the configuration applied to the device on construction.
type Opts struct {
	// Addr is the I²C address, DefaultAddress or AltAddress.
	Addr uint16
	// DataRate is the initial output data rate.
	DataRate DataRate
	// Range is the initial full scale range.
	Range Range
	// PowerMode is the initial power mode.
	PowerMode PowerMode
	// OperationMode is the initial operating mode.
	OperationMode OperationMode
	// EnableTemperature turns the internal temperature sensor on.
	EnableTemperature bool
}

// DefaultOpts matches the device's behavior after power up except that
// the measurement engine is started in continuous mode.
var DefaultOpts = Opts{
	Addr:          DefaultAddress,
	DataRate:      Rate10Hz,
	Range:         Range4Gauss,
	PowerMode:     PowerNormal,
	OperationMode: ModeContinuous,
}

// Dev is a handle to an LIS3MDL magnetometer on an I²C bus.
type Dev struct {
	d    *i2c.Dev
	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
	// Cached LSB per gauss factor for the configured range.
	sens int32
}

var _ conn.Resource = &Dev{}

// NewI2C returns a handle to an LIS3MDL on the given bus. Opts can be nil
// in which case DefaultOpts is used. The device identity is verified and
// the configuration in opts is applied.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultAddress
	}
	d := &Dev{d: &i2c.Dev{Bus: b, Addr: addr}, sens: opts.Range.sensitivity()}
	id, err := d.readRegister(regWhoAmI)
	if err != nil {
		return nil, fmt.Errorf("lis3mdl: reading device ID: %w", err)
	}
	if id != chipID {
		return nil, &WrongChipError{ID: id}
	}
	if err := d.SetDataRate(opts.DataRate); err != nil {
		return nil, err
	}
	if err := d.SetRange(opts.Range); err != nil {
		return nil, err
	}
	if err := d.SetPowerMode(opts.PowerMode); err != nil {
		return nil, err
	}
	if err := d.SetOperationMode(opts.OperationMode); err != nil {
		return nil, err
	}
	if err := d.SetTemperatureEnabled(opts.EnableTemperature); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("LIS3MDL{%s}", d.d)
}

// DataRate returns the currently configured output data rate.
func (d *Dev) DataRate() (DataRate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readRegister(regCtrl1)
	if err != nil {
		return 0, err
	}
	return DataRate((v & dataRateMask) >> dataRateShift), nil
}

// SetDataRate selects the output data rate. The Z axis operative mode
// is updated to match the X/Y mode encoded in the rate so the fast
// rates behave the same on all three axes.
func (d *Dev) SetDataRate(r DataRate) error {
	if !r.valid() {
		return errInvalidDataRate
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.updateBits(regCtrl1, dataRateMask, uint8(r)<<dataRateShift); err != nil {
		return err
	}
	// OM[1:0] are bits 5:4 of the six bit rate field.
	om := (uint8(r) >> 4) & 0x03
	return d.updateBits(regCtrl4, zOperativeMask, om<<zOperativeShift)
}

// Range returns the currently configured full scale range.
func (d *Dev) Range() (Range, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readRegister(regCtrl2)
	if err != nil {
		return 0, err
	}
	return Range((v & rangeMask) >> rangeShift), nil
}

// SetRange selects the full scale range and updates the sensitivity used
// to scale raw counts.
func (d *Dev) SetRange(r Range) error {
	if !r.valid() {
		return errInvalidRange
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.updateBits(regCtrl2, rangeMask, uint8(r)<<rangeShift); err != nil {
		return err
	}
	d.sens = r.sensitivity()
	return nil
}

// PowerMode returns the currently configured power mode.
func (d *Dev) PowerMode() (PowerMode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readRegister(regCtrl3)
	if err != nil {
		return 0, err
	}
	if v&lowPowerBit != 0 {
		return PowerLow, nil
	}
	return PowerNormal, nil
}

// SetPowerMode selects between normal and low power operation.
func (d *Dev) SetPowerMode(m PowerMode) error {
	if !m.valid() {
		return errInvalidPowerMode
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var v uint8
	if m == PowerLow {
		v = lowPowerBit
	}
	return d.updateBits(regCtrl3, lowPowerBit, v)
}

// OperationMode returns the currently configured operating mode.
func (d *Dev) OperationMode() (OperationMode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readRegister(regCtrl3)
	if err != nil {
		return 0, err
	}
	m := OperationMode(v & operationMask)
	if m == 0b11 {
		// Both MD values above 0b01 are power down.
		m = ModePowerDown
	}
	return m, nil
}

// SetOperationMode selects the operating mode.
func (d *Dev) SetOperationMode(m OperationMode) error {
	if !m.valid() {
		return errInvalidOperationMode
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateBits(regCtrl3, operationMask, uint8(m))
}

// TemperatureEnabled reports whether the internal temperature sensor is
// on.
func (d *Dev) TemperatureEnabled() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readRegister(regCtrl1)
	if err != nil {
		return false, err
	}
	return v&tempEnableBit != 0, nil
}

// SetTemperatureEnabled turns the internal temperature sensor on or off.
func (d *Dev) SetTemperatureEnabled(enable bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var v uint8
	if enable {
		v = tempEnableBit
	}
	return d.updateBits(regCtrl1, tempEnableBit, v)
}

// Status returns the STATUS_REG flags.
func (d *Dev) Status() (Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readRegister(regStatus)
	if err != nil {
		return 0, err
	}
	return Status(v), nil
}

// Sense reads the three output registers and scales the counts by the
// sensitivity of the configured range. The conversion is linear:
// 1 gauss is 100µT and the sensitivity is expressed in LSB per gauss.
func (d *Dev) Sense(s *Sample) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var buf [6]byte
	if err := d.readRegisters(regOutXL, buf[:]); err != nil {
		return err
	}
	s.RawX = int16(binary.LittleEndian.Uint16(buf[0:2]))
	s.RawY = int16(binary.LittleEndian.Uint16(buf[2:4]))
	s.RawZ = int16(binary.LittleEndian.Uint16(buf[4:6]))
	s.X = countToFlux(s.RawX, d.sens)
	s.Y = countToFlux(s.RawY, d.sens)
	s.Z = countToFlux(s.RawZ, d.sens)
	return nil
}

// SenseContinuous returns a channel that receives a measurement every
// interval until Halt is called.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan Sample, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return nil, errAlreadySensing
	}
	stop := make(chan struct{})
	d.stop = stop
	d.wg.Add(1)
	ch := make(chan Sample, 16)
	go func() {
		defer d.wg.Done()
		defer close(ch)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				var s Sample
				if err := d.Sense(&s); err != nil {
					continue
				}
				select {
				case ch <- s:
				case <-stop:
					return
				}
			}
		}
	}()
	return ch, nil
}

// Halt stops a running SenseContinuous. Implements conn.Resource.
func (d *Dev) Halt() error {
	d.mu.Lock()
	if d.stop != nil {
		close(d.stop)
		d.stop = nil
	}
	d.mu.Unlock()
	d.wg.Wait()
	return nil
}

// Temperature reads the internal temperature sensor. The sensor must have
// been enabled, either through Opts or SetTemperatureEnabled.
func (d *Dev) Temperature() (physic.Temperature, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readRegister(regCtrl1)
	if err != nil {
		return 0, err
	}
	if v&tempEnableBit == 0 {
		return 0, errTemperatureDisabled
	}
	var buf [2]byte
	if err := d.readRegisters(regTempL, buf[:]); err != nil {
		return 0, err
	}
	raw := int16(binary.LittleEndian.Uint16(buf[:]))
	// 8 LSB per °C, zero count at 25°C.
	t := physic.ZeroCelsius + 25*physic.Celsius
	t += physic.Temperature(int64(raw) * int64(physic.Celsius) / 8)
	return t, nil
}

// Reset performs a soft reset of the configuration registers and waits
// for the device to settle. The range reverts to ±4 gauss.
func (d *Dev) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.updateBits(regCtrl2, softResetBit, softResetBit); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	d.sens = Range4Gauss.sensitivity()
	return nil
}

// ReadRegister reads a single register. Reserved addresses fail with an
// error instead of returning garbage.
func (d *Dev) ReadRegister(reg uint8) (byte, error) {
	if !readableRegister(reg) {
		return 0, errInvalidRegister
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readRegister(reg)
}

// ReadRegisters reads len(buf) consecutive registers starting at reg,
// relying on the device's address auto increment. Every touched address
// must be readable.
func (d *Dev) ReadRegisters(reg uint8, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	for i := range buf {
		if !readableRegister(reg + uint8(i)) {
			return errInvalidRegister
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readRegisters(reg, buf)
}

// WriteRegister writes a single control register. Read-only and reserved
// addresses are rejected.
func (d *Dev) WriteRegister(reg uint8, value byte) error {
	if !readableRegister(reg) {
		return errInvalidRegister
	}
	if !writableRegister(reg) {
		return errReadOnlyRegister
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeRegister(reg, value)
}

func (d *Dev) readRegister(reg uint8) (byte, error) {
	var buf [1]byte
	if err := d.d.Tx([]byte{reg}, buf[:]); err != nil {
		return 0, fmt.Errorf("lis3mdl: reading register %#02x: %w", reg, err)
	}
	return buf[0], nil
}

func (d *Dev) readRegisters(reg uint8, buf []byte) error {
	if err := d.d.Tx([]byte{reg}, buf); err != nil {
		return fmt.Errorf("lis3mdl: reading registers %#02x: %w", reg, err)
	}
	return nil
}

func (d *Dev) writeRegister(reg uint8, value byte) error {
	if err := d.d.Tx([]byte{reg, value}, nil); err != nil {
		return fmt.Errorf("lis3mdl: writing register %#02x: %w", reg, err)
	}
	return nil
}

// updateBits performs a masked read-modify-write of a control register.
func (d *Dev) updateBits(reg, mask, value uint8) error {
	cur, err := d.readRegister(reg)
	if err != nil {
		return err
	}
	return d.writeRegister(reg, (cur&^mask)|(value&mask))
}

// countToFlux converts a raw axis count to nanotesla. sens is the
// sensitivity of the configured range in LSB per gauss.
func countToFlux(raw int16, sens int32) MagneticFluxDensity {
	return MagneticFluxDensity(int64(raw) * int64(Gauss) / int64(sens))
}
