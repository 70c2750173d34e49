// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// lis3mdl-compass-rose reads the magnetometer and renders the compass
// heading as a dial in a PNG file.
package main

import (
	"flag"
	"log"
	"math"
	"os"

	"github.com/fogleman/gg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/sensorkit/lis3mdl"
)

func render(heading physic.Angle, size int, fontPath, out string) error {
	dc := gg.NewContext(size, size)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	cx := float64(size) / 2
	cy := float64(size) / 2
	r := float64(size)/2 - 10

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(2)
	dc.DrawCircle(cx, cy, r)
	dc.Stroke()

	// Tick marks every 30 degrees.
	for i := 0; i < 12; i++ {
		a := float64(i) * math.Pi / 6
		x1 := cx + (r-8)*math.Sin(a)
		y1 := cy - (r-8)*math.Cos(a)
		x2 := cx + r*math.Sin(a)
		y2 := cy - r*math.Cos(a)
		dc.DrawLine(x1, y1, x2, y2)
	}
	dc.Stroke()

	if fontPath != "" {
		if err := dc.LoadFontFace(fontPath, float64(size)/12); err != nil {
			return err
		}
		for i, label := range []string{"N", "E", "S", "W"} {
			a := float64(i) * math.Pi / 2
			x := cx + (r-24)*math.Sin(a)
			y := cy - (r-24)*math.Cos(a)
			dc.DrawStringAnchored(label, x, y, 0.5, 0.5)
		}
	}

	// Needle pointing at the heading, clockwise from north.
	h := float64(heading) / float64(physic.Radian)
	dc.SetRGB(0.8, 0, 0)
	dc.SetLineWidth(3)
	dc.DrawLine(cx, cy, cx+(r-16)*math.Sin(h), cy-(r-16)*math.Cos(h))
	dc.Stroke()
	dc.SetRGB(0, 0, 0)
	dc.DrawCircle(cx, cy, 4)
	dc.Fill()

	return dc.SavePNG(out)
}

func mainImpl() error {
	busName := flag.String("bus", "", "I²C bus to use, empty for the first available")
	out := flag.String("out", "compass.png", "output PNG file")
	size := flag.Int("size", 256, "image size in pixels")
	fontPath := flag.String("font", "", "TTF font for the cardinal labels, empty to skip")
	flag.Parse()

	if _, err := host.Init(); err != nil {
		return err
	}
	bus, err := i2creg.Open(*busName)
	if err != nil {
		return err
	}
	defer bus.Close()

	dev, err := lis3mdl.NewI2C(bus, nil)
	if err != nil {
		return err
	}
	var s lis3mdl.Sample
	if err := dev.Sense(&s); err != nil {
		return err
	}
	heading := s.Heading()
	log.Printf("%s heading:%6.2f°", s, float64(heading)/float64(physic.Degree))
	return render(heading, *size, *fontPath, *out)
}

func main() {
	if err := mainImpl(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
