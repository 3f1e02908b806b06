package can

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const (
	CanRtrFlag uint32 = unix.CAN_RTR_FLAG
	CanEffFlag uint32 = unix.CAN_EFF_FLAG
	CanEffMask uint32 = unix.CAN_EFF_MASK
	CanSffMask uint32 = unix.CAN_SFF_MASK
)

// FlagFD marks a Frame as a CAN FD frame (canfd_frame.flags FDF bit),
// meaning Len may exceed 8 and is one of the CAN FD DLC values.
const FlagFD uint8 = 0x04

// CAN bus errors
const (
	CanErrorTxWarning   = 0x0001 // CAN transmitter warning
	CanErrorTxPassive   = 0x0002 // CAN transmitter passive
	CanErrorTxBusOff    = 0x0004 // CAN transmitter bus off
	CanErrorTxOverflow  = 0x0008 // CAN transmitter overflow
	CanErrorPdoLate     = 0x0080 // TPDO is outside sync window
	CanErrorRxWarning   = 0x0100 // CAN receiver warning
	CanErrorRxPassive   = 0x0200 // CAN receiver passive
	CanErrorRxOverflow  = 0x0800 // CAN receiver overflow
	CanErrorWarnPassive = 0x0303 // Combination
)

// Mtu is a frame payload capacity supported by the wire, tail byte
// included. Classic CAN 2.0B only ever has MtuClassic; CAN FD controllers
// additionally support the larger sizes.
type Mtu uint8

const (
	MtuClassic Mtu = 8

	MtuFD12 Mtu = 12
	MtuFD16 Mtu = 16
	MtuFD20 Mtu = 20
	MtuFD24 Mtu = 24
	MtuFD32 Mtu = 32
	MtuFD48 Mtu = 48
	MtuFD64 Mtu = 64
)

// Valid reports whether m is a frame capacity the wire format supports.
func (m Mtu) Valid() bool {
	switch m {
	case MtuClassic, MtuFD12, MtuFD16, MtuFD20, MtuFD24, MtuFD32, MtuFD48, MtuFD64:
		return true
	}
	return false
}

// IsFD reports whether frames of this Mtu require a CAN FD controller.
func (m Mtu) IsFD() bool { return m > MtuClassic }

// CeilDLC rounds n, a candidate frame data length, up to the next length the
// wire format actually supports. The transmit pipeline does not call it:
// frames emitted by a Transmitter are not rounded up to a supported length.
func CeilDLC(n int) uint8 {
	switch {
	case n <= 8:
		return uint8(n)
	case n <= 12:
		return uint8(MtuFD12)
	case n <= 16:
		return uint8(MtuFD16)
	case n <= 20:
		return uint8(MtuFD20)
	case n <= 24:
		return uint8(MtuFD24)
	case n <= 32:
		return uint8(MtuFD32)
	case n <= 48:
		return uint8(MtuFD48)
	default:
		return uint8(MtuFD64)
	}
}

// A CAN frame: a 29-bit arbitration identifier plus up to MtuFD64 bytes of
// payload. Data is a fixed array so that building a Frame never touches the
// heap; Len reports how many of its bytes are valid.
type Frame struct {
	ID    uint32
	Flags uint8
	Len   uint8
	Data  [64]byte
}

func NewFrame(id uint32, flags uint8, length uint8) Frame {
	return Frame{ID: id, Flags: flags, Len: length}
}

// Interface for handling a received CAN frame
type FrameListener interface {
	Handle(frame Frame)
}

// A CAN Bus interface
type Bus interface {
	Connect(...any) error                   // Connect to the CAN bus
	Disconnect() error                      // Disconnect from CAN bus
	Send(frame Frame) error                 // Send a frame on the bus
	Subscribe(callback FrameListener) error // Subscribe to all received CAN frames
}

// Register a new CAN bus interface type
// This should be called inside an init() function of plugin
func RegisterInterface(interfaceType string, newInterface NewInterfaceFunc) {
	interfaceRegistry[interfaceType] = newInterface
}

type NewInterfaceFunc func(channel string) (Bus, error)

var interfaceRegistry = make(map[string]NewInterfaceFunc)

// Create a new CAN bus with given interface
// Currently supported : socketcan, virtualcan
func NewBus(canInterface string, channel string, bitrate int) (Bus, error) {
	createInterface, ok := interfaceRegistry[canInterface]
	if !ok {
		return nil, fmt.Errorf("unsupported interface : %v", canInterface)
	}
	return createInterface(channel)
}
