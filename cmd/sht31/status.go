package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/sht31d/cmd/sht31/console"
	"github.com/mklimuk/sht31d/snsctx"
)

type statusReport struct {
	Raw              string `yaml:"raw"`
	Heater           bool   `yaml:"heater"`
	AlertPending     bool   `yaml:"alert_pending"`
	HumidityAlert    bool   `yaml:"humidity_alert"`
	TemperatureAlert bool   `yaml:"temperature_alert"`
	ResetDetected    bool   `yaml:"reset_detected"`
	CommandFailed    bool   `yaml:"command_failed"`
	ChecksumFailed   bool   `yaml:"checksum_failed"`
}

var statusCmd = cli.Command{
	Name:  "status",
	Usage: "read the sensor status register",
	Flags: append([]cli.Flag{
		&cli.BoolFlag{
			Name:  "clear",
			Usage: "clear alert flags after reading",
		},
	}, busFlags...),
	Action: func(c *cli.Context) error {
		ctx := snsctx.SetVerbose(context.Background(), c.Bool("verbose"))
		dev, err := openDevice(c)
		if err != nil {
			return console.Exit(1, "device initialization error: %s", console.Red(err))
		}
		status, err := dev.GetStatus(ctx)
		if err != nil {
			return console.Exit(1, "status read error: %s", console.Red(err))
		}
		report := statusReport{
			Raw:              fmt.Sprintf("%#04x", status),
			Heater:           status&(1<<13) != 0,
			AlertPending:     status&(1<<15) != 0,
			HumidityAlert:    status&(1<<11) != 0,
			TemperatureAlert: status&(1<<10) != 0,
			ResetDetected:    status&(1<<4) != 0,
			CommandFailed:    status&(1<<1) != 0,
			ChecksumFailed:   status&(1<<0) != 0,
		}
		enc := yaml.NewEncoder(os.Stdout)
		if err := enc.Encode(report); err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		if c.Bool("clear") {
			if err := dev.ClearStatus(ctx); err != nil {
				return console.Exit(1, "clear status error: %s", console.Red(err))
			}
			console.Infof("alert flags cleared")
		}
		return nil
	},
}

var serialCmd = cli.Command{
	Name:  "serial",
	Usage: "read the device serial number",
	Flags: busFlags,
	Action: func(c *cli.Context) error {
		ctx := snsctx.SetVerbose(context.Background(), c.Bool("verbose"))
		dev, err := openDevice(c)
		if err != nil {
			return console.Exit(1, "device initialization error: %s", console.Red(err))
		}
		serial, err := dev.GetSerialNumber(ctx)
		if err != nil {
			return console.Exit(1, "serial number read error: %s", console.Red(err))
		}
		console.PInfof(console.PictoPin, "serial number: %s", console.White(serial))
		return nil
	},
}

var heaterCmd = cli.Command{
	Name:  "heater",
	Usage: "read or switch the sensor's internal heater",
	Flags: append([]cli.Flag{
		&cli.BoolFlag{Name: "on"},
		&cli.BoolFlag{Name: "off"},
	}, busFlags...),
	Action: func(c *cli.Context) error {
		ctx := snsctx.SetVerbose(context.Background(), c.Bool("verbose"))
		dev, err := openDevice(c)
		if err != nil {
			return console.Exit(1, "device initialization error: %s", console.Red(err))
		}
		if c.Bool("on") {
			// The heater draws noticeable current and skews readings.
			answer, err := console.YesOrNo("enable the internal heater?")
			if err != nil {
				return console.Exit(1, "prompt error: %s", console.Red(err))
			}
			if answer != console.Yes {
				return nil
			}
			if err := dev.SetHeater(ctx, true); err != nil {
				return console.Exit(1, "heater command error: %s", console.Red(err))
			}
		} else if c.Bool("off") {
			if err := dev.SetHeater(ctx, false); err != nil {
				return console.Exit(1, "heater command error: %s", console.Red(err))
			}
		}
		// The heater command is fire-and-forget; the status register is the
		// only way to observe the result.
		on, err := dev.GetHeater(ctx)
		if err != nil {
			return console.Exit(1, "status read error: %s", console.Red(err))
		}
		if on {
			console.PInfof(console.PictoFire, "heater is %s", console.Green("on"))
		} else {
			console.PInfof(console.PictoStop, "heater is %s", console.White("off"))
		}
		return nil
	},
}

var adapterCmd = cli.Command{
	Name: "adapter",
	Subcommands: cli.Commands{
		&adapterStatusCmd,
		&adapterReleaseCmd,
	},
}
