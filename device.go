package sht31d

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"
)

// SHT31-D I2C addresses (7-bit). The secondary address is selected by
// pulling the ADDR pin high.
const (
	DefaultAddress   byte = 0x44
	SecondaryAddress byte = 0x45
)

const (
	// Guard delay between a command write and the matching read. Also used
	// after mode-switch commands before the sensor accepts the next one.
	commandDelay = time.Millisecond
	// Soft reset settle time.
	resetDelay = 1500 * time.Microsecond
)

// humidityDivisor converts a raw humidity word to %RH. The SHT31-D datasheet
// uses 65535; one earlier driver generation divided by 65523 instead. This
// driver uses the datasheet value throughout, so a raw 0xFFFF reads as
// exactly 100%.
const humidityDivisor = 65535.0

// Heater bit of the status word.
const statusHeaterBit = 0x2000

// The periodic fetch frame holds up to 8 temperature/humidity pairs.
const periodicFrameSize = 8 * 2 * wordSize

type Opts struct {
	Address byte
	// Clock is consulted for cache staleness decisions.
	Clock func() time.Time
}

type Opt func(*Opts)

func WithAddress(address byte) Opt {
	return func(o *Opts) {
		o.Address = address
	}
}

func WithClock(clock func() time.Time) Opt {
	return func(o *Opts) {
		o.Clock = clock
	}
}

// SHT31D drives a Sensirion SHT31-D temperature/humidity sensor over an
// injected I2C transport. Typical usage:
//
//	dev, err := sht31d.New(bus)
//	if err != nil { ... }
//	if err := dev.Init(ctx); err != nil { ... }
//	temp, hum, err := dev.GetTempAndHum(ctx)
//
// All operations are serialized internally; a command, its settling delay
// and the reply read execute as one uninterrupted bus transaction.
type SHT31D struct {
	mx        sync.Mutex
	transport I2CBus
	addr      byte
	now       func() time.Time

	mode          Mode
	repeatability Repeatability
	stretching    bool
	art           bool
	frequency     Frequency

	cachedTemps []float32
	cachedHums  []float32
	lastRead    time.Time
}

// New creates a driver handle with the documented defaults: Single mode,
// High repeatability, clock stretching off, ART off, 4 Hz. Call Init before
// the first measurement.
func New(transport I2CBus, opts ...Opt) (*SHT31D, error) {
	config := Opts{
		Address: DefaultAddress,
		Clock:   time.Now,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Address != DefaultAddress && config.Address != SecondaryAddress {
		return nil, fmt.Errorf("sht31d: address %#x: %w", config.Address, ErrInvalidConfig)
	}
	return &SHT31D{
		transport:     transport,
		addr:          config.Address,
		now:           config.Clock,
		mode:          ModeSingle,
		repeatability: RepHigh,
		frequency:     Frequency4,
	}, nil
}

// Init performs the power-on reset sequence. It must be called once after
// opening the transport, before any other operation.
func (d *SHT31D) Init(ctx context.Context) error {
	return d.Reset(ctx)
}

// Reset soft-resets the sensor. The reset command is preceded by a periodic
// break because the sensor ignores soft reset while streaming.
func (d *SHT31D) Reset(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.reset(ctx)
}

func (d *SHT31D) reset(ctx context.Context) error {
	if err := d.writeCommand(ctx, cmdPeriodicBreak); err != nil {
		return fmt.Errorf("sht31d: periodic break failed: %w", err)
	}
	if err := d.sleep(ctx, commandDelay); err != nil {
		return err
	}
	if err := d.writeCommand(ctx, cmdSoftReset); err != nil {
		return fmt.Errorf("sht31d: soft reset failed: %w", err)
	}
	return d.sleep(ctx, resetDelay)
}

// Mode returns the current acquisition mode.
func (d *SHT31D) Mode() Mode {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.mode
}

// SetMode switches between Single and Periodic acquisition. Leaving Periodic
// mode issues a break command first; entering it starts the sensor sampling
// at the configured repeatability/frequency (or ART).
func (d *SHT31D) SetMode(ctx context.Context, mode Mode) error {
	if !mode.valid() {
		return fmt.Errorf("sht31d: mode %q: %w", mode, ErrInvalidConfig)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.mode == ModePeriodic && mode != ModePeriodic {
		if err := d.writeCommand(ctx, cmdPeriodicBreak); err != nil {
			return fmt.Errorf("sht31d: periodic break failed: %w", err)
		}
		if err := d.sleep(ctx, commandDelay); err != nil {
			return err
		}
	}
	if mode == ModePeriodic && d.mode != ModePeriodic {
		if err := d.startPeriodic(ctx); err != nil {
			return err
		}
	}
	d.mode = mode
	return nil
}

// Repeatability returns the current repeatability setting.
func (d *SHT31D) Repeatability() Repeatability {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.repeatability
}

// SetRepeatability changes the noise/acquisition-time tradeoff. In Periodic
// mode the change takes effect immediately by restarting the acquisition.
func (d *SHT31D) SetRepeatability(ctx context.Context, rep Repeatability) error {
	if !rep.valid() {
		return fmt.Errorf("sht31d: repeatability %q: %w", rep, ErrInvalidConfig)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	changed := rep != d.repeatability
	d.repeatability = rep
	if d.mode == ModePeriodic && changed {
		return d.startPeriodic(ctx)
	}
	return nil
}

// ClockStretching reports whether single-shot measurements use bus clock
// stretching instead of a host-side settling delay.
func (d *SHT31D) ClockStretching() bool {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.stretching
}

// SetClockStretching toggles clock stretching. Only affects Single mode.
func (d *SHT31D) SetClockStretching(enabled bool) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.stretching = enabled
}

// ART reports whether accelerated response time is enabled.
func (d *SHT31D) ART() bool {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.art
}

// SetART toggles accelerated response time. Enabling it forces the
// acquisition frequency to 4 Hz. Only affects Periodic mode; in Periodic
// mode the change takes effect immediately.
func (d *SHT31D) SetART(ctx context.Context, enabled bool) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if enabled {
		d.frequency = Frequency4
	}
	changed := enabled != d.art
	d.art = enabled
	if d.mode == ModePeriodic && changed {
		return d.startPeriodic(ctx)
	}
	return nil
}

// Frequency returns the periodic acquisition frequency.
func (d *SHT31D) Frequency() Frequency {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.frequency
}

// SetFrequency changes the periodic acquisition frequency. It fails with
// ErrFrequencyLocked while ART is enabled, and leaves the configuration
// untouched on any rejection.
func (d *SHT31D) SetFrequency(ctx context.Context, freq Frequency) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.art {
		return fmt.Errorf("sht31d: %w", ErrFrequencyLocked)
	}
	if !freq.valid() {
		return fmt.Errorf("sht31d: frequency %s: %w", freq, ErrInvalidConfig)
	}
	changed := freq != d.frequency
	d.frequency = freq
	if d.mode == ModePeriodic && changed {
		return d.startPeriodic(ctx)
	}
	return nil
}

// GetTemperature returns the temperature in degrees Celsius. In Periodic
// mode this is the first sample of the most recently fetched series.
func (d *SHT31D) GetTemperature(ctx context.Context) (float32, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.read(ctx); err != nil {
		return 0, err
	}
	return d.cachedTemps[0], nil
}

// GetHumidity returns the relative humidity in %RH. In Periodic mode this is
// the first sample of the most recently fetched series.
func (d *SHT31D) GetHumidity(ctx context.Context) (float32, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.read(ctx); err != nil {
		return 0, err
	}
	return d.cachedHums[0], nil
}

// GetTempAndHum returns temperature and humidity from a single acquisition.
func (d *SHT31D) GetTempAndHum(ctx context.Context) (float32, float32, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.read(ctx); err != nil {
		return 0, 0, err
	}
	return d.cachedTemps[0], d.cachedHums[0], nil
}

// GetSeries returns the temperature and humidity series from the sensor's
// internal buffer. In Periodic mode it holds up to 8 samples in the order
// the sensor returned them; fewer when the buffer was not yet full. In
// Single mode both series have exactly one element.
func (d *SHT31D) GetSeries(ctx context.Context) ([]float32, []float32, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.read(ctx); err != nil {
		return nil, nil, err
	}
	temps := make([]float32, len(d.cachedTemps))
	hums := make([]float32, len(d.cachedHums))
	copy(temps, d.cachedTemps)
	copy(hums, d.cachedHums)
	return temps, hums, nil
}

// read refreshes the reading cache: unconditionally in Single mode, and in
// Periodic mode only once the cache is older than one acquisition interval.
// Callers must hold the mutex.
func (d *SHT31D) read(ctx context.Context) error {
	if d.mode == ModePeriodic && !d.lastRead.IsZero() && d.now().Sub(d.lastRead) < d.frequency.Interval() {
		return nil
	}
	var buf []byte
	switch d.mode {
	case ModePeriodic:
		if err := d.writeCommand(ctx, cmdPeriodicFetch); err != nil {
			return fmt.Errorf("sht31d: fetch command failed: %w", err)
		}
		if err := d.sleep(ctx, commandDelay); err != nil {
			return err
		}
		buf = make([]byte, periodicFrameSize)
	default:
		cmd, err := singleCommand(d.repeatability, d.stretching)
		if err != nil {
			return err
		}
		if err := d.writeCommand(ctx, cmd); err != nil {
			return fmt.Errorf("sht31d: measure command failed: %w", err)
		}
		// With clock stretching the sensor holds the bus until data is
		// ready, so only the guard delay applies.
		delay := settlingDelay(d.repeatability)
		if d.stretching {
			delay = commandDelay
		}
		if err := d.sleep(ctx, delay); err != nil {
			return err
		}
		buf = make([]byte, 2*wordSize)
	}
	// An unfilled reply must not checksum-match by accident.
	buf[0] = 0xFF
	if err := d.transport.ReadFromAddr(ctx, d.addr, buf); err != nil {
		return fmt.Errorf("sht31d: read failed: %w", err)
	}
	words, err := decodeWords(buf)
	if err != nil {
		return fmt.Errorf("sht31d: %w", err)
	}
	pairs := len(words) / 2
	if pairs == 0 {
		return fmt.Errorf("sht31d: no complete sample in reply: %w", ErrChecksum)
	}
	temps := make([]float32, pairs)
	hums := make([]float32, pairs)
	for i := 0; i < pairs; i++ {
		temps[i] = convertTemperature(words[i*2])
		hums[i] = convertHumidity(words[i*2+1])
	}
	d.cachedTemps = temps
	d.cachedHums = hums
	d.lastRead = d.now()
	return nil
}

// GetStatus reads the 16-bit status register.
func (d *SHT31D) GetStatus(ctx context.Context) (uint16, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.status(ctx)
}

func (d *SHT31D) status(ctx context.Context) (uint16, error) {
	if err := d.writeCommand(ctx, cmdReadStatus); err != nil {
		return 0, fmt.Errorf("sht31d: status command failed: %w", err)
	}
	if err := d.sleep(ctx, commandDelay); err != nil {
		return 0, err
	}
	buf := make([]byte, 2)
	if err := d.transport.ReadFromAddr(ctx, d.addr, buf); err != nil {
		return 0, fmt.Errorf("sht31d: status read failed: %w", err)
	}
	return binary.BigEndian.Uint16(buf), nil
}

// ClearStatus clears the status register's alert flags.
func (d *SHT31D) ClearStatus(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.writeCommand(ctx, cmdClearStatus); err != nil {
		return fmt.Errorf("sht31d: clear status failed: %w", err)
	}
	return d.sleep(ctx, commandDelay)
}

// GetHeater reports whether the internal heater is on (status bit 13).
func (d *SHT31D) GetHeater(ctx context.Context) (bool, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	status, err := d.status(ctx)
	if err != nil {
		return false, err
	}
	return status&statusHeaterBit != 0, nil
}

// SetHeater switches the internal heater. The sensor does not acknowledge
// the command; re-query GetHeater to observe the effect.
func (d *SHT31D) SetHeater(ctx context.Context, on bool) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	cmd := cmdHeaterDisable
	if on {
		cmd = cmdHeaterEnable
	}
	if err := d.writeCommand(ctx, cmd); err != nil {
		return fmt.Errorf("sht31d: heater command failed: %w", err)
	}
	return d.sleep(ctx, commandDelay)
}

// GetSerialNumber reads the 32-bit device serial number.
func (d *SHT31D) GetSerialNumber(ctx context.Context) (uint32, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.writeCommand(ctx, cmdReadSerial); err != nil {
		return 0, fmt.Errorf("sht31d: serial number command failed: %w", err)
	}
	if err := d.sleep(ctx, commandDelay); err != nil {
		return 0, err
	}
	buf := make([]byte, 2*wordSize)
	buf[0] = 0xFF
	if err := d.transport.ReadFromAddr(ctx, d.addr, buf); err != nil {
		return 0, fmt.Errorf("sht31d: serial number read failed: %w", err)
	}
	words, err := decodeWords(buf)
	if err != nil {
		return 0, fmt.Errorf("sht31d: %w", err)
	}
	if len(words) != 2 {
		return 0, fmt.Errorf("sht31d: serial number reply incomplete: %w", ErrChecksum)
	}
	return uint32(words[0])<<16 | uint32(words[1]), nil
}

// startPeriodic issues the periodic-start command for the current
// configuration and invalidates the cache so the next read fetches fresh
// data. Callers must hold the mutex.
func (d *SHT31D) startPeriodic(ctx context.Context) error {
	cmd, err := periodicCommand(d.art, d.repeatability, d.frequency)
	if err != nil {
		return err
	}
	if err := d.writeCommand(ctx, cmd); err != nil {
		return fmt.Errorf("sht31d: periodic start failed: %w", err)
	}
	if err := d.sleep(ctx, commandDelay); err != nil {
		return err
	}
	d.lastRead = time.Time{}
	return nil
}

func (d *SHT31D) writeCommand(ctx context.Context, cmd uint16) error {
	return d.transport.WriteToAddr(ctx, d.addr, encodeCommand(cmd))
}

func (d *SHT31D) sleep(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func convertTemperature(raw uint16) float32 {
	return -45.0 + 175.0*float32(raw)/65535.0
}

func convertHumidity(raw uint16) float32 {
	return 100.0 * float32(raw) / humidityDivisor
}
