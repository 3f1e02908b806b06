// Package config loads the transmitter's bus and queue settings from an
// INI file (gopkg.in/ini.v1).
package config

import (
	"fmt"

	"github.com/samsamfire/cyphalcan/pkg/can"
	"gopkg.in/ini.v1"
)

// Bus holds the settings needed to bring up a CAN interface and a
// Transmitter on top of it.
type Bus struct {
	Interface   string // e.g. "socketcan", "virtual"
	Channel     string // e.g. "can0", "localhost:18888"
	BitrateHz   int
	Mtu         can.Mtu
	QueueDepth  int
	DefaultNode uint8
}

const section = "bus"

var defaults = Bus{
	Interface:   "virtual",
	Channel:     "localhost:18888",
	BitrateHz:   500_000,
	Mtu:         can.MtuClassic,
	QueueDepth:  32,
	DefaultNode: 0,
}

// Load reads bus settings from file, an ini.v1 source (path, []byte,
// io.Reader, ...). Missing keys fall back to sane defaults for a classic
// CAN bus reachable over the local virtual-CAN loopback.
func Load(file any) (Bus, error) {
	cfg := defaults
	raw, err := ini.Load(file)
	if err != nil {
		return Bus{}, fmt.Errorf("config: %w", err)
	}
	sec := raw.Section(section)

	cfg.Interface = sec.Key("interface").MustString(cfg.Interface)
	cfg.Channel = sec.Key("channel").MustString(cfg.Channel)
	cfg.BitrateHz = sec.Key("bitrate").MustInt(cfg.BitrateHz)
	cfg.QueueDepth = sec.Key("queue_depth").MustInt(cfg.QueueDepth)
	cfg.DefaultNode = uint8(sec.Key("node_id").MustInt(int(cfg.DefaultNode)))

	mtu := can.Mtu(sec.Key("mtu").MustInt(int(cfg.Mtu)))
	if !mtu.Valid() {
		return Bus{}, fmt.Errorf("config: mtu %d is not a supported frame capacity", mtu)
	}
	cfg.Mtu = mtu

	return cfg, nil
}
