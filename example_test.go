// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lis3mdl_test

import (
	"fmt"
	"log"
	"time"

	"github.com/sensorkit/lis3mdl"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Example demonstrating how to read the magnetometer once.
func Example() {
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()

	dev, err := lis3mdl.NewI2C(bus, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer dev.Halt()

	var s lis3mdl.Sample
	if err := dev.Sense(&s); err != nil {
		log.Fatal(err)
	}
	fmt.Println(s)
}

// ExampleDev_SenseContinuous reads the field at 10Hz for one second.
func ExampleDev_SenseContinuous() {
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()

	opts := lis3mdl.DefaultOpts
	opts.DataRate = lis3mdl.Rate10Hz
	opts.Range = lis3mdl.Range8Gauss
	dev, err := lis3mdl.NewI2C(bus, &opts)
	if err != nil {
		log.Fatal(err)
	}

	ch, err := dev.SenseContinuous(100 * time.Millisecond)
	if err != nil {
		log.Fatal(err)
	}
	timeout := time.After(time.Second)
	for {
		select {
		case s := <-ch:
			fmt.Println(s)
		case <-timeout:
			_ = dev.Halt()
			return
		}
	}
}
