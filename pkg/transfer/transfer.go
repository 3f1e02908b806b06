// Package transfer implements the Cyphal/CAN transmit pipeline: packing a
// logical transfer's 29-bit arbitration identifier, segmenting its payload
// into frame-sized chunks with tail bytes, and pushing the result through a
// bounded frame queue.
package transfer

import "fmt"

// Priority is the arbitration priority carried in bits 28..26 of the CAN
// identifier. Lower numeric value arbitrates first on the bus.
type Priority uint8

const (
	PriorityExceptional Priority = 0
	PriorityImmediate   Priority = 1
	PriorityFast        Priority = 2
	PriorityHigh        Priority = 3
	PriorityNominal     Priority = 4
	PriorityLow         Priority = 5
	PrioritySlow        Priority = 6
	PriorityOptional    Priority = 7
)

func (p Priority) Valid() bool { return p <= PriorityOptional }

// NodeID is a 7-bit node identifier (0..126, since 127 is reserved).
type NodeID uint8

const maxNodeID = 127

func (n NodeID) Valid() bool { return uint8(n) < maxNodeID }

// SubjectID is the 13-bit publish/subscribe topic identifier of a message
// transfer.
type SubjectID uint16

const maxSubjectID = 1 << 13

func (s SubjectID) Valid() bool { return uint16(s) < maxSubjectID }

// ServiceID is the 9-bit request/response endpoint identifier of a service
// transfer.
type ServiceID uint16

const maxServiceID = 1 << 9

func (s ServiceID) Valid() bool { return uint16(s) < maxServiceID }

// TransferID is a 5-bit counter identifying a transfer; it is taken modulo
// 32 wherever it appears on the wire.
type TransferID uint8

func (t TransferID) wire() uint8 { return uint8(t) & 0x1F }

// Kind discriminates the three Header variants.
type Kind uint8

const (
	KindMessage Kind = iota
	KindRequest
	KindResponse
)

// Header carries the routing metadata of one transfer. Exactly one of the
// three logical shapes is populated, selected by Kind:
//
//   - KindMessage: Subject, optional Source (SourceIsSet false => anonymous).
//   - KindRequest / KindResponse: Service, Source, Destination.
type Header struct {
	Kind        Kind
	Priority    Priority
	Subject     SubjectID
	Service     ServiceID
	Source      NodeID
	SourceIsSet bool
	Destination NodeID
	TransferID  TransferID
}

// NewMessageHeader builds a Header for a published message. Pass
// sourceIsSet=false to mark the message as anonymous (the identifier
// encoder then derives a pseudo node-id from the payload).
func NewMessageHeader(priority Priority, subject SubjectID, source NodeID, sourceIsSet bool, tid TransferID) Header {
	return Header{
		Kind:        KindMessage,
		Priority:    priority,
		Subject:     subject,
		Source:      source,
		SourceIsSet: sourceIsSet,
		TransferID:  tid,
	}
}

// NewRequestHeader builds a Header for a service request.
func NewRequestHeader(priority Priority, service ServiceID, source, destination NodeID, tid TransferID) Header {
	return Header{
		Kind:        KindRequest,
		Priority:    priority,
		Service:     service,
		Source:      source,
		SourceIsSet: true,
		Destination: destination,
		TransferID:  tid,
	}
}

// NewResponseHeader builds a Header for a service response.
func NewResponseHeader(priority Priority, service ServiceID, source, destination NodeID, tid TransferID) Header {
	h := NewRequestHeader(priority, service, source, destination, tid)
	h.Kind = KindResponse
	return h
}

// Validate checks the Header's fields are within the bit widths the wire
// format allows, independent of any particular payload.
func (h Header) Validate() error {
	if !h.Priority.Valid() {
		return fmt.Errorf("transfer: priority %d out of range", h.Priority)
	}
	switch h.Kind {
	case KindMessage:
		if !h.Subject.Valid() {
			return fmt.Errorf("transfer: subject id %d out of range", h.Subject)
		}
		if h.SourceIsSet && !h.Source.Valid() {
			return fmt.Errorf("transfer: source node id %d out of range", h.Source)
		}
	case KindRequest, KindResponse:
		if !h.Service.Valid() {
			return fmt.Errorf("transfer: service id %d out of range", h.Service)
		}
		if !h.Source.Valid() {
			return fmt.Errorf("transfer: source node id %d out of range", h.Source)
		}
		if !h.Destination.Valid() {
			return fmt.Errorf("transfer: destination node id %d out of range", h.Destination)
		}
	default:
		return fmt.Errorf("transfer: unknown header kind %d", h.Kind)
	}
	return nil
}

// Transfer is one logical message or service exchange awaiting
// transmission. Timestamp is generic over the clock type the embedding
// application uses (a monotonic tick count, time.Time, ...); the pipeline
// never inspects it beyond stamping it onto outgoing Frames.
type Transfer[I any] struct {
	Header    Header
	Payload   []byte
	Timestamp I
}

// Frame is one outgoing CAN payload, stamped with the identifier and
// timestamp shared by every frame of the transfer it belongs to. Data is a
// fixed array, sized to the largest CAN FD Mtu, so that a Frame never owns
// a heap allocation of its own; Len reports how many of its bytes (tail
// byte included) are valid.
type Frame[I any] struct {
	Timestamp I
	ID        CanID
	Data      [64]byte
	Len       uint8
}
