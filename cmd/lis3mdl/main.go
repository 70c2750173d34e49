// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// lis3mdl reads an LIS3MDL magnetometer and prints the field strength
// and compass heading.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sensorkit/lis3mdl"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

var rates = map[string]lis3mdl.DataRate{
	"0.625": lis3mdl.Rate0Hz625,
	"1.25":  lis3mdl.Rate1Hz25,
	"2.5":   lis3mdl.Rate2Hz5,
	"5":     lis3mdl.Rate5Hz,
	"10":    lis3mdl.Rate10Hz,
	"20":    lis3mdl.Rate20Hz,
	"40":    lis3mdl.Rate40Hz,
	"80":    lis3mdl.Rate80Hz,
	"155":   lis3mdl.Rate155Hz,
	"300":   lis3mdl.Rate300Hz,
	"560":   lis3mdl.Rate560Hz,
	"1000":  lis3mdl.Rate1000Hz,
}

var ranges = map[int]lis3mdl.Range{
	4:  lis3mdl.Range4Gauss,
	8:  lis3mdl.Range8Gauss,
	12: lis3mdl.Range12Gauss,
	16: lis3mdl.Range16Gauss,
}

func mainImpl() error {
	busName := flag.String("bus", "", "I²C bus to use, empty for the first available")
	addr := flag.Uint("addr", uint(lis3mdl.DefaultAddress), "I²C address of the device")
	rate := flag.String("rate", "10", "output data rate in Hz")
	scale := flag.Int("scale", 4, "full scale range in gauss (4, 8, 12, 16)")
	interval := flag.Duration("interval", 500*time.Millisecond, "time between readings")
	count := flag.Int("count", 0, "number of readings, 0 for unlimited")
	temp := flag.Bool("temp", false, "also read the internal temperature sensor")
	flag.Parse()

	dataRate, ok := rates[*rate]
	if !ok {
		return fmt.Errorf("unsupported data rate %q", *rate)
	}
	rng, ok := ranges[*scale]
	if !ok {
		return fmt.Errorf("unsupported scale range %d", *scale)
	}

	if _, err := host.Init(); err != nil {
		return err
	}
	bus, err := i2creg.Open(*busName)
	if err != nil {
		return err
	}
	defer bus.Close()

	opts := lis3mdl.DefaultOpts
	opts.Addr = uint16(*addr)
	opts.DataRate = dataRate
	opts.Range = rng
	opts.EnableTemperature = *temp
	dev, err := lis3mdl.NewI2C(bus, &opts)
	if err != nil {
		return err
	}
	defer dev.Halt()

	ch, err := dev.SenseContinuous(*interval)
	if err != nil {
		return err
	}
	n := 0
	for s := range ch {
		heading := float64(s.Heading()) / float64(physic.Degree)
		fmt.Printf("%s heading:%6.2f°", s, heading)
		if *temp {
			if t, err := dev.Temperature(); err == nil {
				fmt.Printf(" %s", t)
			}
		}
		fmt.Println()
		n++
		if *count > 0 && n >= *count {
			break
		}
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
