// Package socketcan wraps github.com/brutella/can as a can.Bus for talking
// to a real SocketCAN interface.
package socketcan

import (
	"fmt"

	sockcan "github.com/brutella/can"
	can "github.com/samsamfire/cyphalcan/pkg/can"
)

func init() {
	can.RegisterInterface("socketcan", NewSocketCanBus)
}

// Bus adapts brutella/can's classic-CAN-only Bus to can.Bus. It cannot
// carry CAN FD frames (brutella/can's wire frame is a fixed 8 bytes); a
// Transmitter configured with an FD Mtu needs a different driver.
type Bus struct {
	bus        *sockcan.Bus
	rxCallback can.FrameListener
}

// Connect implements can.Bus.
func (b *Bus) Connect(...any) error {
	go b.bus.ConnectAndPublish()
	return nil
}

// Disconnect implements can.Bus.
func (b *Bus) Disconnect() error {
	return b.bus.Disconnect()
}

// Send implements can.Bus.
func (b *Bus) Send(frame can.Frame) error {
	if frame.Len > 8 {
		return fmt.Errorf("socketcan: frame length %d exceeds classic CAN 8 byte payload, this backend has no FD support", frame.Len)
	}
	var data [8]byte
	copy(data[:], frame.Data[:frame.Len])
	return b.bus.Publish(sockcan.Frame{
		ID:     frame.ID,
		Length: frame.Len,
		Flags:  frame.Flags,
		Data:   data,
	})
}

// Subscribe implements can.Bus.
func (b *Bus) Subscribe(rxCallback can.FrameListener) error {
	b.rxCallback = rxCallback
	// brutella/can defines its own Handle-based listener interface.
	b.bus.Subscribe(b)
	return nil
}

// Handle implements brutella/can's FrameListener.
func (b *Bus) Handle(frame sockcan.Frame) {
	var data [64]byte
	copy(data[:], frame.Data[:])
	b.rxCallback.Handle(can.Frame{ID: frame.ID, Len: frame.Length, Flags: frame.Flags, Data: data})
}

// NewSocketCanBus opens the named SocketCAN interface (e.g. "can0").
func NewSocketCanBus(name string) (can.Bus, error) {
	bus, err := sockcan.NewBusForInterfaceWithName(name)
	return &Bus{bus: bus}, err
}
