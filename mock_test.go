package sht31d

import (
	"context"
	"errors"
	"testing"
)

func TestMock_StaticValues(t *testing.T) {
	sensor := NewMock(
		func(ctx context.Context) (float32, error) { return 22.5, nil },
		func(ctx context.Context) (float32, error) { return 45.0, nil },
	)

	ctx := context.Background()

	temp, err := sensor.GetTemperature(ctx)
	if err != nil {
		t.Fatalf("GetTemperature: unexpected error: %v", err)
	}
	if temp != 22.5 {
		t.Errorf("expected temperature 22.5, got %f", temp)
	}

	hum, err := sensor.GetHumidity(ctx)
	if err != nil {
		t.Fatalf("GetHumidity: unexpected error: %v", err)
	}
	if hum != 45.0 {
		t.Errorf("expected humidity 45.0, got %f", hum)
	}

	temp, hum, err = sensor.GetTempAndHum(ctx)
	if err != nil {
		t.Fatalf("GetTempAndHum: unexpected error: %v", err)
	}
	if temp != 22.5 || hum != 45.0 {
		t.Errorf("expected 22.5/45.0, got %f/%f", temp, hum)
	}
}

func TestMock_PropagatesErrors(t *testing.T) {
	failure := errors.New("sensor offline")
	sensor := NewMock(
		func(ctx context.Context) (float32, error) { return 0, failure },
		func(ctx context.Context) (float32, error) { return 45.0, nil },
	)

	if _, _, err := sensor.GetTempAndHum(context.Background()); !errors.Is(err, failure) {
		t.Errorf("expected behavior error, got %v", err)
	}
}
