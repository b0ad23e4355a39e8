package sht31d

import (
	"fmt"
	"time"
)

// ErrInvalidConfig reports a configuration value outside its allowed domain.
var ErrInvalidConfig = fmt.Errorf("configuration value not supported")

// ErrFrequencyLocked reports a frequency change attempted while ART is
// enabled; the sensor pins the acquisition frequency to 4 Hz in that state.
var ErrFrequencyLocked = fmt.Errorf("frequency locked to 4 Hz while ART enabled")

// Mode selects between on-demand and sensor-autonomous acquisition.
type Mode int

const (
	// ModeSingle triggers one measurement per read.
	ModeSingle Mode = iota
	// ModePeriodic lets the sensor sample continuously at the configured
	// frequency; reads fetch from its internal buffer.
	ModePeriodic
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "Single"
	case ModePeriodic:
		return "Periodic"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) valid() bool {
	return m == ModeSingle || m == ModePeriodic
}

// Repeatability trades measurement noise against acquisition time.
type Repeatability int

const (
	RepLow Repeatability = iota
	RepMedium
	RepHigh
)

func (r Repeatability) String() string {
	switch r {
	case RepLow:
		return "Low"
	case RepMedium:
		return "Medium"
	case RepHigh:
		return "High"
	default:
		return fmt.Sprintf("Repeatability(%d)", int(r))
	}
}

func (r Repeatability) valid() bool {
	return r >= RepLow && r <= RepHigh
}

// Frequency is the periodic-mode acquisition frequency in Hz.
type Frequency float32

const (
	FrequencyHalf Frequency = 0.5
	Frequency1    Frequency = 1
	Frequency2    Frequency = 2
	Frequency4    Frequency = 4
	Frequency10   Frequency = 10
)

func (f Frequency) valid() bool {
	switch f {
	case FrequencyHalf, Frequency1, Frequency2, Frequency4, Frequency10:
		return true
	default:
		return false
	}
}

// Interval returns the time between two sensor-side acquisitions; cached
// readings older than this are stale.
func (f Frequency) Interval() time.Duration {
	return time.Duration(float64(time.Second) / float64(f))
}

func (f Frequency) String() string {
	if f == FrequencyHalf {
		return "0.5Hz"
	}
	return fmt.Sprintf("%dHz", int(f))
}

// Fixed command words (big-endian on the wire, SHT31-D datasheet).
const (
	cmdReadSerial    uint16 = 0x3780
	cmdReadStatus    uint16 = 0xF32D
	cmdClearStatus   uint16 = 0x3041
	cmdHeaterEnable  uint16 = 0x306D
	cmdHeaterDisable uint16 = 0x3066
	cmdSoftReset     uint16 = 0x30A2
	cmdPeriodicFetch uint16 = 0xE000
	cmdPeriodicBreak uint16 = 0x3093
	cmdPeriodicART   uint16 = 0x2B32
)

// singleCommand returns the single-shot measurement command for the given
// repeatability and clock-stretching setting.
func singleCommand(rep Repeatability, stretching bool) (uint16, error) {
	type key struct {
		rep        Repeatability
		stretching bool
	}
	commands := map[key]uint16{
		{RepLow, false}:    0x2416,
		{RepMedium, false}: 0x240B,
		{RepHigh, false}:   0x2400,
		{RepLow, true}:     0x2C10,
		{RepMedium, true}:  0x2C0D,
		{RepHigh, true}:    0x2C06,
	}
	cmd, ok := commands[key{rep, stretching}]
	if !ok {
		return 0, fmt.Errorf("no single-shot command for repeatability %s: %w", rep, ErrInvalidConfig)
	}
	return cmd, nil
}

// periodicCommand returns the periodic-start command. With ART enabled the
// sensor samples at 4 Hz with accelerated thermal response and ignores the
// repeatability/frequency pair.
func periodicCommand(art bool, rep Repeatability, freq Frequency) (uint16, error) {
	if art {
		return cmdPeriodicART, nil
	}
	type key struct {
		rep  Repeatability
		freq Frequency
	}
	commands := map[key]uint16{
		{RepLow, FrequencyHalf}:    0x202F,
		{RepMedium, FrequencyHalf}: 0x2024,
		{RepHigh, FrequencyHalf}:   0x2032,
		{RepLow, Frequency1}:       0x212D,
		{RepMedium, Frequency1}:    0x2126,
		{RepHigh, Frequency1}:      0x2130,
		{RepLow, Frequency2}:       0x222B,
		{RepMedium, Frequency2}:    0x2220,
		{RepHigh, Frequency2}:      0x2236,
		{RepLow, Frequency4}:       0x2329,
		{RepMedium, Frequency4}:    0x2322,
		{RepHigh, Frequency4}:      0x2334,
		{RepLow, Frequency10}:      0x272A,
		{RepMedium, Frequency10}:   0x2721,
		{RepHigh, Frequency10}:     0x2737,
	}
	cmd, ok := commands[key{rep, freq}]
	if !ok {
		return 0, fmt.Errorf("no periodic command for repeatability %s at %s: %w", rep, freq, ErrInvalidConfig)
	}
	return cmd, nil
}

// settlingDelay returns how long a non-stretching single-shot measurement
// takes at the given repeatability (datasheet maximum measurement duration).
func settlingDelay(rep Repeatability) time.Duration {
	switch rep {
	case RepLow:
		return 4500 * time.Microsecond
	case RepMedium:
		return 6500 * time.Microsecond
	default:
		return 15500 * time.Microsecond
	}
}
