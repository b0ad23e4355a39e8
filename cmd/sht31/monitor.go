package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sht31d"
	"github.com/mklimuk/sht31d/cmd/sht31/console"
	"github.com/mklimuk/sht31d/snsctx"
)

func configurePeriodic(ctx context.Context, c *cli.Context, dev *sht31d.SHT31D) error {
	rep, err := parseRepeatability(c.String("repeatability"))
	if err != nil {
		return err
	}
	if err := dev.SetRepeatability(ctx, rep); err != nil {
		return err
	}
	if c.Bool("art") {
		if err := dev.SetART(ctx, true); err != nil {
			return err
		}
	} else {
		freq, err := parseFrequency(c.Float64("frequency"))
		if err != nil {
			return err
		}
		if err := dev.SetFrequency(ctx, freq); err != nil {
			return err
		}
	}
	return dev.SetMode(ctx, sht31d.ModePeriodic)
}

var monitorCmd = cli.Command{
	Name:  "monitor",
	Usage: "sample continuously in periodic mode until interrupted",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:    "repeatability",
			Aliases: []string{"r"},
			Usage:   "measurement repeatability: low, medium or high",
			Value:   "high",
		},
		&cli.Float64Flag{
			Name:    "frequency",
			Aliases: []string{"f"},
			Usage:   "acquisition frequency in Hz: 0.5, 1, 2, 4 or 10",
			Value:   1,
		},
		&cli.BoolFlag{
			Name:  "art",
			Usage: "enable accelerated response time (pins frequency to 4 Hz)",
		},
		&cli.BoolFlag{
			Name:  "series",
			Usage: "print the full sample series held by the sensor",
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
		if err := configurePeriodic(ctx, c, dev); err != nil {
			return console.Exit(1, "configuration error: %s", console.Red(err))
		}
		console.Infof("sampling at %s, repeatability %s", dev.Frequency(), dev.Repeatability())

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)
		defer signal.Stop(interrupt)

		ticker := time.NewTicker(dev.Frequency().Interval())
		defer ticker.Stop()
		for {
			select {
			case <-interrupt:
				console.Infof("stopping acquisition")
				if err := dev.SetMode(ctx, sht31d.ModeSingle); err != nil {
					return console.Exit(1, "could not stop periodic mode: %s", console.Red(err))
				}
				return nil
			case <-ticker.C:
				if c.Bool("series") {
					temps, hums, err := dev.GetSeries(ctx)
					if err != nil {
						console.Errorf("read error: %s", console.Red(err))
						continue
					}
					for i := range temps {
						console.Printf("%2d: %s %s°C %s %s%%\n", i,
							console.PictoThermometer, console.White(temps[i]),
							console.PictoHumidity, console.White(hums[i]))
					}
					continue
				}
				temp, hum, err := dev.GetTempAndHum(ctx)
				if err != nil {
					console.Errorf("read error: %s", console.Red(err))
					continue
				}
				console.Printf("%s %s°C %s %s%%\n",
					console.PictoThermometer, console.White(temp),
					console.PictoHumidity, console.White(hum))
			}
		}
	},
}
