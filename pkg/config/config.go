// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config holds the configuration of the lis3mdl-export command,
// loaded from an optional JSON file with flag overrides.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sensorkit/lis3mdl"
)

type MQTTConfig struct {
	Server   string `json:"server"`
	Username string `json:"username"`
	Password string `json:"password"`
	ClientID string `json:"client_id"`
	Topic    string `json:"topic"`
}

type OutputConfig struct {
	Type string      `json:"type"`
	MQTT *MQTTConfig `json:"mqtt,omitempty"`
}

type Config struct {
	I2CBus      string         `json:"i2c_bus"`
	I2CAddress  int            `json:"i2c_address"`
	DataRateHz  string         `json:"data_rate_hz"`
	ScaleGauss  int            `json:"scale_gauss"`
	IntervalMs  int            `json:"interval_ms"`
	Temperature bool           `json:"temperature"`
	Outputs     []OutputConfig `json:"outputs"`
}

func DefaultConfig() Config {
	return Config{
		I2CBus:     "",
		I2CAddress: int(lis3mdl.DefaultAddress),
		DataRateHz: "10",
		ScaleGauss: 4,
		IntervalMs: 1000,
		Outputs:    []OutputConfig{{Type: "console"}},
	}
}

var dataRates = map[string]lis3mdl.DataRate{
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

var scaleRanges = map[int]lis3mdl.Range{
	4:  lis3mdl.Range4Gauss,
	8:  lis3mdl.Range8Gauss,
	12: lis3mdl.Range12Gauss,
	16: lis3mdl.Range16Gauss,
}

// DataRate maps the configured rate to the matching device setting.
func (c Config) DataRate() (lis3mdl.DataRate, error) {
	r, ok := dataRates[c.DataRateHz]
	if !ok {
		return 0, fmt.Errorf("unsupported data rate %q", c.DataRateHz)
	}
	return r, nil
}

// Range maps the configured scale to the matching device setting.
func (c Config) Range() (lis3mdl.Range, error) {
	r, ok := scaleRanges[c.ScaleGauss]
	if !ok {
		return 0, fmt.Errorf("unsupported scale range %d gauss", c.ScaleGauss)
	}
	return r, nil
}

// LoadFromFlags loads configuration from a JSON file (optional) and flags.
// Flags override values present in the JSON file.
func LoadFromFlags() (Config, error) {
	cfgPath := flag.String("config", "", "Path to JSON config file")
	flagI2CBus := flag.String("i2c-bus", "", "I²C bus, empty for the first available")
	flagI2CAddr := flag.String("i2c-address", "", "I²C address (decimal or 0x hex)")
	flagRate := flag.String("rate", "", "output data rate in Hz")
	flagScale := flag.Int("scale", -1, "full scale range in gauss (4, 8, 12, 16)")
	flagInterval := flag.Int("interval-ms", -1, "publish interval in ms")
	flagTemp := flag.Bool("temperature", false, "publish the internal temperature")
	flagOutputs := flag.String("outputs", "", "comma-separated outputs (console,mqtt)")
	flagMQTTServer := flag.String("mqtt-server", "", "MQTT server (tcp://host:port)")
	flagMQTTUser := flag.String("mqtt-user", "", "MQTT username")
	flagMQTTPass := flag.String("mqtt-pass", "", "MQTT password")
	flagClientID := flag.String("mqtt-client-id", "", "MQTT client id")
	flagTopic := flag.String("mqtt-topic", "", "MQTT topic")

	flag.Parse()

	cfg := DefaultConfig()

	if *cfgPath != "" {
		b, err := os.ReadFile(*cfgPath)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if *flagI2CBus != "" {
		cfg.I2CBus = *flagI2CBus
	}
	if *flagI2CAddr != "" {
		v, err := parseIntOrHex(*flagI2CAddr)
		if err != nil {
			return cfg, fmt.Errorf("i2c-address: %w", err)
		}
		cfg.I2CAddress = v
	}
	if *flagRate != "" {
		cfg.DataRateHz = *flagRate
	}
	if *flagScale != -1 {
		cfg.ScaleGauss = *flagScale
	}
	if *flagInterval != -1 {
		cfg.IntervalMs = *flagInterval
	}
	if *flagTemp {
		cfg.Temperature = true
	}
	if *flagOutputs != "" {
		parts := parseCSV(*flagOutputs)
		outs := make([]OutputConfig, 0, len(parts))
		for _, p := range parts {
			outs = append(outs, OutputConfig{Type: p})
		}
		cfg.Outputs = outs
	}
	if *flagMQTTServer != "" || *flagMQTTUser != "" || *flagMQTTPass != "" || *flagClientID != "" || *flagTopic != "" {
		applied := false
		for i := range cfg.Outputs {
			if strings.EqualFold(cfg.Outputs[i].Type, "mqtt") {
				applyMQTTFlags(&cfg.Outputs[i], *flagMQTTServer, *flagMQTTUser, *flagMQTTPass, *flagClientID, *flagTopic)
				applied = true
			}
		}
		if !applied {
			out := OutputConfig{Type: "mqtt"}
			applyMQTTFlags(&out, *flagMQTTServer, *flagMQTTUser, *flagMQTTPass, *flagClientID, *flagTopic)
			cfg.Outputs = append(cfg.Outputs, out)
		}
	}

	if _, err := cfg.DataRate(); err != nil {
		return cfg, err
	}
	if _, err := cfg.Range(); err != nil {
		return cfg, err
	}
	if cfg.IntervalMs <= 0 {
		return cfg, fmt.Errorf("interval-ms must be > 0")
	}
	return cfg, nil
}

func applyMQTTFlags(out *OutputConfig, server, user, pass, clientID, topic string) {
	if out.MQTT == nil {
		out.MQTT = &MQTTConfig{}
	}
	if server != "" {
		out.MQTT.Server = server
	}
	if user != "" {
		out.MQTT.Username = user
	}
	if pass != "" {
		out.MQTT.Password = pass
	}
	if clientID != "" {
		out.MQTT.ClientID = clientID
	}
	if topic != "" {
		out.MQTT.Topic = topic
	}
}

func parseIntOrHex(s string) (int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseInt(s[2:], 16, 0)
		return int(v), err
	}
	return strconv.Atoi(s)
}

func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
