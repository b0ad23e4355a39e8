package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/sht31d"
	"github.com/mklimuk/sht31d/adapter"
	"github.com/mklimuk/sht31d/i2c"
)

// busFlags are shared by every command that talks to the sensor.
var busFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "adapter",
		Aliases: []string{"a"},
		Usage:   "transport adapter: mcp2221, i2c or nanopi",
		Value:   "mcp2221",
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"d"},
		Usage:   "i2c device path (i2c adapter only)",
		Value:   "/dev/i2c-1",
	},
	&cli.IntFlag{
		Name:  "bus",
		Usage: "i2c bus number (nanopi adapter only)",
		Value: 2,
	},
	&cli.StringFlag{
		Name:  "address",
		Usage: "sensor address: 0x44 or 0x45",
		Value: "0x44",
	},
	&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
}

func openBus(c *cli.Context) (sht31d.I2CBus, error) {
	switch c.String("adapter") {
	case "mcp2221":
		return adapter.NewMCP2221(), nil
	case "i2c":
		return i2c.NewGenericBus(c.String("device"))
	case "nanopi":
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		return i2c.NewGobotBus(npi, c.Int("bus")), nil
	default:
		return nil, fmt.Errorf("unknown adapter %q", c.String("adapter"))
	}
}

func deviceAddress(c *cli.Context) (byte, error) {
	switch c.String("address") {
	case "0x44", "44":
		return sht31d.DefaultAddress, nil
	case "0x45", "45":
		return sht31d.SecondaryAddress, nil
	default:
		return 0, fmt.Errorf("unsupported address %q", c.String("address"))
	}
}

func openDevice(c *cli.Context) (*sht31d.SHT31D, error) {
	bus, err := openBus(c)
	if err != nil {
		return nil, err
	}
	addr, err := deviceAddress(c)
	if err != nil {
		return nil, err
	}
	return sht31d.New(bus, sht31d.WithAddress(addr))
}

func parseRepeatability(value string) (sht31d.Repeatability, error) {
	switch value {
	case "low":
		return sht31d.RepLow, nil
	case "medium", "med":
		return sht31d.RepMedium, nil
	case "high":
		return sht31d.RepHigh, nil
	default:
		return 0, fmt.Errorf("unsupported repeatability %q", value)
	}
}

func parseFrequency(value float64) (sht31d.Frequency, error) {
	switch value {
	case 0.5:
		return sht31d.FrequencyHalf, nil
	case 1:
		return sht31d.Frequency1, nil
	case 2:
		return sht31d.Frequency2, nil
	case 4:
		return sht31d.Frequency4, nil
	case 10:
		return sht31d.Frequency10, nil
	default:
		return 0, fmt.Errorf("unsupported frequency %v", value)
	}
}
