package sht31d

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockI2CBus is a mock implementation of I2CBus using testify/mock
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// writes returns the command payloads written to the bus, in call order.
func writes(bus *MockI2CBus) [][]byte {
	var out [][]byte
	for _, call := range bus.Calls {
		if call.Method == "WriteToAddr" {
			out = append(out, call.Arguments.Get(2).([]byte))
		}
	}
	return out
}

func expectWrite(bus *MockI2CBus, cmd uint16) *mock.Call {
	return bus.On("WriteToAddr", mock.Anything, DefaultAddress, encodeCommand(cmd)).Return(nil).Once()
}

func expectRead(bus *MockI2CBus, data []byte) *mock.Call {
	return bus.On("ReadFromAddr", mock.Anything, DefaultAddress, mock.Anything).Return(data, nil).Once()
}

func TestNew_Defaults(t *testing.T) {
	dev, err := New(new(MockI2CBus))
	require.NoError(t, err)
	assert.Equal(t, ModeSingle, dev.Mode())
	assert.Equal(t, RepHigh, dev.Repeatability())
	assert.False(t, dev.ClockStretching())
	assert.False(t, dev.ART())
	assert.Equal(t, Frequency4, dev.Frequency())
}

func TestNew_Address(t *testing.T) {
	_, err := New(new(MockI2CBus), WithAddress(SecondaryAddress))
	assert.NoError(t, err)

	_, err = New(new(MockI2CBus), WithAddress(0x10))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestReset_CommandOrder(t *testing.T) {
	bus := new(MockI2CBus)
	dev, err := New(bus)
	require.NoError(t, err)

	expectWrite(bus, cmdPeriodicBreak)
	expectWrite(bus, cmdSoftReset)

	start := time.Now()
	require.NoError(t, dev.Init(context.Background()))
	duration := time.Since(start)

	sent := writes(bus)
	require.Len(t, sent, 2)
	assert.Equal(t, encodeCommand(cmdPeriodicBreak), sent[0])
	assert.Equal(t, encodeCommand(cmdSoftReset), sent[1])
	assert.GreaterOrEqual(t, duration, 2500*time.Microsecond, "reset must honor the break and soft-reset delays")
	bus.AssertExpectations(t)
}

func TestReset_FromPeriodicMode(t *testing.T) {
	bus := new(MockI2CBus)
	dev, err := New(bus)
	require.NoError(t, err)

	// High repeatability at the default 4 Hz
	expectWrite(bus, 0x2334)
	require.NoError(t, dev.SetMode(context.Background(), ModePeriodic))

	expectWrite(bus, cmdPeriodicBreak)
	expectWrite(bus, cmdSoftReset)
	require.NoError(t, dev.Reset(context.Background()))

	sent := writes(bus)
	require.Len(t, sent, 3)
	assert.Equal(t, encodeCommand(cmdPeriodicBreak), sent[1])
	assert.Equal(t, encodeCommand(cmdSoftReset), sent[2])
	bus.AssertExpectations(t)
}

func TestSetFrequency_LockedWhileART(t *testing.T) {
	dev, err := New(new(MockI2CBus))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, dev.SetFrequency(ctx, Frequency1))
	assert.Equal(t, Frequency1, dev.Frequency())

	// enabling ART pins the frequency to 4 Hz
	require.NoError(t, dev.SetART(ctx, true))
	assert.Equal(t, Frequency4, dev.Frequency())

	err = dev.SetFrequency(ctx, Frequency10)
	assert.ErrorIs(t, err, ErrFrequencyLocked)
	assert.Equal(t, Frequency4, dev.Frequency())

	require.NoError(t, dev.SetART(ctx, false))
	require.NoError(t, dev.SetFrequency(ctx, Frequency10))
	assert.Equal(t, Frequency10, dev.Frequency())
}

func TestSetters_RejectInvalid(t *testing.T) {
	bus := new(MockI2CBus)
	dev, err := New(bus)
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, dev.SetMode(ctx, Mode(9)), ErrInvalidConfig)
	assert.Equal(t, ModeSingle, dev.Mode())

	assert.ErrorIs(t, dev.SetRepeatability(ctx, Repeatability(9)), ErrInvalidConfig)
	assert.Equal(t, RepHigh, dev.Repeatability())

	assert.ErrorIs(t, dev.SetFrequency(ctx, Frequency(3)), ErrInvalidConfig)
	assert.Equal(t, Frequency4, dev.Frequency())

	// rejected setters must not have touched the bus
	bus.AssertExpectations(t)
	assert.Empty(t, bus.Calls)
}

func TestSingleRead(t *testing.T) {
	bus := new(MockI2CBus)
	dev, err := New(bus)
	require.NoError(t, err)
	ctx := context.Background()

	expectWrite(bus, 0x2400)
	expectRead(bus, frame(0x6488, 0x9C2E))

	temp, hum, err := dev.GetTempAndHum(ctx)
	require.NoError(t, err)
	assert.Equal(t, convertTemperature(0x6488), temp)
	assert.Equal(t, convertHumidity(0x9C2E), hum)

	// single mode refreshes unconditionally on every read
	expectWrite(bus, 0x2400)
	expectRead(bus, frame(0x6490, 0x9C30))

	temp, err = dev.GetTemperature(ctx)
	require.NoError(t, err)
	assert.Equal(t, convertTemperature(0x6490), temp)
	bus.AssertExpectations(t)
}

func TestSingleRead_ClockStretching(t *testing.T) {
	bus := new(MockI2CBus)
	dev, err := New(bus)
	require.NoError(t, err)

	dev.SetClockStretching(true)
	expectWrite(bus, 0x2C06)
	expectRead(bus, frame(0x6488, 0x9C2E))

	_, _, err = dev.GetTempAndHum(context.Background())
	require.NoError(t, err)
	bus.AssertExpectations(t)
}

func TestSingleRead_LowRepeatability(t *testing.T) {
	bus := new(MockI2CBus)
	dev, err := New(bus)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, dev.SetRepeatability(ctx, RepLow))
	expectWrite(bus, 0x2416)
	expectRead(bus, frame(0x6488, 0x9C2E))

	_, _, err = dev.GetTempAndHum(ctx)
	require.NoError(t, err)
	bus.AssertExpectations(t)
}

func TestPeriodicRead_CacheTiming(t *testing.T) {
	bus := new(MockI2CBus)
	now := time.Unix(1000, 0)
	dev, err := New(bus, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, dev.SetFrequency(ctx, Frequency1))
	expectWrite(bus, 0x2130)
	require.NoError(t, dev.SetMode(ctx, ModePeriodic))

	expectWrite(bus, cmdPeriodicFetch)
	expectRead(bus, frame(0x6488, 0x9C2E, 0x6490, 0x9C30))

	temp, err := dev.GetTemperature(ctx)
	require.NoError(t, err)
	assert.Equal(t, convertTemperature(0x6488), temp)

	// 0.5s later the cache is still fresh at 1 Hz; no fetch may be issued
	now = now.Add(500 * time.Millisecond)
	temp, err = dev.GetTemperature(ctx)
	require.NoError(t, err)
	assert.Equal(t, convertTemperature(0x6488), temp)

	// 1.1s after the fetch the cache is stale
	now = now.Add(600 * time.Millisecond)
	expectWrite(bus, cmdPeriodicFetch)
	expectRead(bus, frame(0x64A0, 0x9C40))

	temp, err = dev.GetTemperature(ctx)
	require.NoError(t, err)
	assert.Equal(t, convertTemperature(0x64A0), temp)
	bus.AssertExpectations(t)
}

func TestPeriodicRead_PartialSeries(t *testing.T) {
	bus := new(MockI2CBus)
	dev, err := New(bus)
	require.NoError(t, err)
	ctx := context.Background()

	expectWrite(bus, 0x2334)
	require.NoError(t, dev.SetMode(ctx, ModePeriodic))

	// only 3 of 8 pairs populated; the unfilled tail stays zeroed and fails
	// its checksums
	expectWrite(bus, cmdPeriodicFetch)
	expectRead(bus, frame(0x0000, 0xFFFF, 0x6488, 0x9C2E, 0xFFFF, 0x0000))

	temps, hums, err := dev.GetSeries(ctx)
	require.NoError(t, err)
	require.Len(t, temps, 3)
	require.Len(t, hums, 3)
	assert.Equal(t, float32(-45.0), temps[0])
	assert.Equal(t, float32(100.0), hums[0])
	assert.Equal(t, convertTemperature(0x6488), temps[1])
	assert.Equal(t, convertHumidity(0x9C2E), hums[1])
	bus.AssertExpectations(t)
}

func TestSetMode_BreakBeforeSingle(t *testing.T) {
	bus := new(MockI2CBus)
	dev, err := New(bus)
	require.NoError(t, err)
	ctx := context.Background()

	expectWrite(bus, 0x2334)
	require.NoError(t, dev.SetMode(ctx, ModePeriodic))

	expectWrite(bus, cmdPeriodicBreak)
	require.NoError(t, dev.SetMode(ctx, ModeSingle))

	expectWrite(bus, 0x2400)
	expectRead(bus, frame(0x6488, 0x9C2E))
	_, _, err = dev.GetTempAndHum(ctx)
	require.NoError(t, err)

	sent := writes(bus)
	require.Len(t, sent, 3)
	assert.Equal(t, encodeCommand(cmdPeriodicBreak), sent[1])
	assert.Equal(t, encodeCommand(0x2400), sent[2])
	bus.AssertExpectations(t)
}

func TestSetRepeatability_RestartsPeriodic(t *testing.T) {
	bus := new(MockI2CBus)
	dev, err := New(bus)
	require.NoError(t, err)
	ctx := context.Background()

	expectWrite(bus, 0x2334)
	require.NoError(t, dev.SetMode(ctx, ModePeriodic))

	expectWrite(bus, 0x2329)
	require.NoError(t, dev.SetRepeatability(ctx, RepLow))
	bus.AssertExpectations(t)
}

func TestSetART_RestartsPeriodic(t *testing.T) {
	bus := new(MockI2CBus)
	dev, err := New(bus)
	require.NoError(t, err)
	ctx := context.Background()

	expectWrite(bus, 0x2334)
	require.NoError(t, dev.SetMode(ctx, ModePeriodic))

	expectWrite(bus, cmdPeriodicART)
	require.NoError(t, dev.SetART(ctx, true))
	bus.AssertExpectations(t)
}

func TestConversions(t *testing.T) {
	assert.Equal(t, float32(-45.0), convertTemperature(0x0000))
	assert.InDelta(t, 130.0, convertTemperature(0xFFFF), 1e-4)
	assert.Equal(t, float32(0.0), convertHumidity(0x0000))
	assert.Equal(t, float32(100.0), convertHumidity(0xFFFF))
}

func TestGetSerialNumber(t *testing.T) {
	bus := new(MockI2CBus)
	dev, err := New(bus)
	require.NoError(t, err)

	expectWrite(bus, cmdReadSerial)
	expectRead(bus, frame(0x1234, 0x5678))

	serial, err := dev.GetSerialNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), serial)
	bus.AssertExpectations(t)
}

func TestGetSerialNumber_IncompleteReply(t *testing.T) {
	bus := new(MockI2CBus)
	dev, err := New(bus)
	require.NoError(t, err)

	buf := frame(0x1234, 0x5678)
	buf[5] ^= 0xFF
	expectWrite(bus, cmdReadSerial)
	expectRead(bus, buf)

	_, err = dev.GetSerialNumber(context.Background())
	assert.ErrorIs(t, err, ErrChecksum)
	bus.AssertExpectations(t)
}

func TestGetStatus(t *testing.T) {
	bus := new(MockI2CBus)
	dev, err := New(bus)
	require.NoError(t, err)

	expectWrite(bus, cmdReadStatus)
	expectRead(bus, []byte{0x80, 0x10})

	status, err := dev.GetStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(0x8010), status)
	bus.AssertExpectations(t)
}

func TestHeater(t *testing.T) {
	bus := new(MockI2CBus)
	dev, err := New(bus)
	require.NoError(t, err)
	ctx := context.Background()

	expectWrite(bus, cmdHeaterEnable)
	require.NoError(t, dev.SetHeater(ctx, true))

	// the heater command is fire-and-forget; state is observed via status
	expectWrite(bus, cmdReadStatus)
	expectRead(bus, []byte{0x20, 0x00})
	on, err := dev.GetHeater(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	expectWrite(bus, cmdHeaterDisable)
	require.NoError(t, dev.SetHeater(ctx, false))

	expectWrite(bus, cmdReadStatus)
	expectRead(bus, []byte{0x00, 0x00})
	on, err = dev.GetHeater(ctx)
	require.NoError(t, err)
	assert.False(t, on)
	bus.AssertExpectations(t)
}

func TestRead_ChecksumError(t *testing.T) {
	bus := new(MockI2CBus)
	dev, err := New(bus)
	require.NoError(t, err)

	buf := frame(0x6488, 0x9C2E)
	buf[2] ^= 0xFF
	expectWrite(bus, 0x2400)
	expectRead(bus, buf)

	_, _, err = dev.GetTempAndHum(context.Background())
	assert.ErrorIs(t, err, ErrChecksum)
	bus.AssertExpectations(t)
}

func TestRead_TransportErrorPropagates(t *testing.T) {
	bus := new(MockI2CBus)
	dev, err := New(bus)
	require.NoError(t, err)

	bus.On("WriteToAddr", mock.Anything, DefaultAddress, mock.Anything).
		Return(errors.New("i2c write failed")).Once()

	_, _, err = dev.GetTempAndHum(context.Background())
	assert.ErrorContains(t, err, "i2c write failed")
	bus.AssertExpectations(t)
}

func TestRead_ContextCancelled(t *testing.T) {
	bus := new(MockI2CBus)
	dev, err := New(bus)
	require.NoError(t, err)

	bus.On("WriteToAddr", mock.Anything, DefaultAddress, mock.Anything).
		Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = dev.GetTempAndHum(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	bus.AssertExpectations(t)
}
