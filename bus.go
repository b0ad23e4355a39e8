package sht31d

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// I2CBus is the transport the driver talks through. Implementations are
// expected to perform a complete bus transaction per call; the driver
// serializes calls itself and never overlaps them.
type I2CBus interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}
