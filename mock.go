package sht31d

import "context"

// ReadingBehaviorFunc produces one reading (temperature in Celsius or
// relative humidity in %RH) or an error.
type ReadingBehaviorFunc func(ctx context.Context) (float32, error)

// Mock is a hardware-free stand-in for the driver's measurement surface,
// driven by behavior functions. Useful for consumers that want to exercise
// their own logic without a sensor attached.
//
// Example usage:
//
//	sensor := sht31d.NewMock(
//		func(ctx context.Context) (float32, error) { return 22.5, nil },
//		func(ctx context.Context) (float32, error) { return 45.0, nil },
//	)
type Mock struct {
	tempBehavior ReadingBehaviorFunc
	humBehavior  ReadingBehaviorFunc
}

func NewMock(tempBehavior, humBehavior ReadingBehaviorFunc) *Mock {
	return &Mock{
		tempBehavior: tempBehavior,
		humBehavior:  humBehavior,
	}
}

// GetTemperature returns the temperature from the temperature behavior.
func (m *Mock) GetTemperature(ctx context.Context) (float32, error) {
	return m.tempBehavior(ctx)
}

// GetHumidity returns the humidity from the humidity behavior.
func (m *Mock) GetHumidity(ctx context.Context) (float32, error) {
	return m.humBehavior(ctx)
}

// GetTempAndHum returns both readings, temperature behavior first.
func (m *Mock) GetTempAndHum(ctx context.Context) (float32, float32, error) {
	temp, err := m.tempBehavior(ctx)
	if err != nil {
		return 0, 0, err
	}
	hum, err := m.humBehavior(ctx)
	if err != nil {
		return 0, 0, err
	}
	return temp, hum, nil
}
