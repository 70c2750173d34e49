// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// lis3mdl-export reads an LIS3MDL magnetometer on a schedule and
// publishes the readings to one or more outputs (console, MQTT).
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/sensorkit/lis3mdl"
	"github.com/sensorkit/lis3mdl/pkg/config"
	"github.com/sensorkit/lis3mdl/pkg/output"
	"github.com/sensorkit/lis3mdl/pkg/output/console"
	"github.com/sensorkit/lis3mdl/pkg/output/mqtt"
)

func initOutputs(cfg config.Config) ([]output.Output, error) {
	outs := make([]output.Output, 0, len(cfg.Outputs))
	for _, o := range cfg.Outputs {
		switch o.Type {
		case "console":
			outs = append(outs, console.NewConsole())
		case "mqtt":
			mc := config.MQTTConfig{}
			if o.MQTT != nil {
				mc = *o.MQTT
			}
			m, err := mqtt.NewMQTT(mc)
			if err != nil {
				return nil, err
			}
			outs = append(outs, m)
		default:
			return nil, fmt.Errorf("unknown output type %q", o.Type)
		}
	}
	return outs, nil
}

func mainImpl() error {
	cfg, err := config.LoadFromFlags()
	if err != nil {
		return err
	}
	rate, err := cfg.DataRate()
	if err != nil {
		return err
	}
	rng, err := cfg.Range()
	if err != nil {
		return err
	}

	outs, err := initOutputs(cfg)
	if err != nil {
		return err
	}
	defer func() {
		for _, o := range outs {
			_ = o.Close()
		}
	}()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("host init: %w", err)
	}
	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("open i2c: %w", err)
	}
	defer bus.Close()

	opts := lis3mdl.DefaultOpts
	opts.Addr = uint16(cfg.I2CAddress)
	opts.DataRate = rate
	opts.Range = rng
	opts.EnableTemperature = cfg.Temperature
	dev, err := lis3mdl.NewI2C(bus, &opts)
	if err != nil {
		return err
	}
	defer dev.Halt()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(cfg.IntervalMs) * time.Millisecond)
	defer ticker.Stop()

	log.Printf("publishing %s at %s every %dms", dev, rate, cfg.IntervalMs)
	for {
		select {
		case <-sig:
			log.Println("shutting down")
			return nil
		case <-ticker.C:
			var s lis3mdl.Sample
			if err := dev.Sense(&s); err != nil {
				log.Printf("sense: %v", err)
				continue
			}
			r := output.FromSample(s, time.Now())
			if cfg.Temperature {
				if t, err := dev.Temperature(); err == nil {
					c := float64(t-physic.ZeroCelsius) / float64(physic.Celsius)
					r.TempC = &c
				}
			}
			for _, o := range outs {
				if err := o.Publish(r); err != nil {
					log.Printf("publish: %v", err)
				}
			}
		}
	}
}

func main() {
	if err := mainImpl(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
