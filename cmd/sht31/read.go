package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sht31d/cmd/sht31/console"
	"github.com/mklimuk/sht31d/snsctx"
)

var readCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"temp"},
	Usage:   "perform a single-shot measurement",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:    "repeatability",
			Aliases: []string{"r"},
			Usage:   "measurement repeatability: low, medium or high",
			Value:   "high",
		},
		&cli.BoolFlag{
			Name:  "stretch",
			Usage: "use bus clock stretching instead of a settling delay",
		},
	}, busFlags...),
	Action: func(c *cli.Context) error {
		ctx := snsctx.SetVerbose(context.Background(), c.Bool("verbose"))
		dev, err := openDevice(c)
		if err != nil {
			return console.Exit(1, "device initialization error: %s", console.Red(err))
		}
		if err := dev.Init(ctx); err != nil {
			return console.Exit(1, "sensor reset error: %s", console.Red(err))
		}
		rep, err := parseRepeatability(c.String("repeatability"))
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		if err := dev.SetRepeatability(ctx, rep); err != nil {
			return console.Exit(1, "configuration error: %s", console.Red(err))
		}
		dev.SetClockStretching(c.Bool("stretch"))
		temp, hum, err := dev.GetTempAndHum(ctx)
		if err != nil {
			return console.Exit(1, "error getting measurement: %s", console.Red(err))
		}
		console.PInfof(console.PictoThermometer, " %s°C", console.White(temp))
		console.PInfof(console.PictoHumidity, "%s%%", console.White(hum))
		return nil
	},
}

var resetCmd = cli.Command{
	Name:  "reset",
	Usage: "soft-reset the sensor",
	Flags: busFlags,
	Action: func(c *cli.Context) error {
		ctx := snsctx.SetVerbose(context.Background(), c.Bool("verbose"))
		dev, err := openDevice(c)
		if err != nil {
			return console.Exit(1, "device initialization error: %s", console.Red(err))
		}
		if err := dev.Reset(ctx); err != nil {
			return console.Exit(1, "sensor reset error: %s", console.Red(err))
		}
		console.Infof("sensor reset")
		return nil
	},
}
